// Package mapi provides types, interfaces, and helpers for working with the
// Parla management API.
//
// # Overview
//
// The mapi package defines the domain types (User, Organisation, Project,
// AuditEvent) and the interfaces for resource-oriented clients (UsersClient,
// OrganisationsClient, and so on). A concrete implementation of these clients
// is provided by the parlaclient package, which wires configuration,
// transport, and authentication for both the API-key surface and the
// Basic-auth management surface. Most consumers should import parlaclient to
// construct a client and then interact with the resource client interfaces
// exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/parla-ai/mapi-client/pkg/mapi"
//	  "github.com/parla-ai/mapi-client/pkg/parlaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := parlaclient.New(&mapi.Config{
//	    APIEndpoint: "https://api.parla.example.com",
//	    APIKey:      "key",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Collect every audit event, page by page
//	  events, err := cli.AuditEvents().List(ctx, mapi.NewQueryParams().WithLimit(50))
//	  if err != nil { log.Fatal(err) }
//	  _ = events
//	}
//
// # Queries and pagination
//
// Use QueryParams to express list options (cursor, offset, limit, filters).
// Deployments that rename the pagination fields are handled through
// PageFields. The package also provides helpers for iterating or collecting
// paginated results:
//
//	it := mapi.NewPaginationIterator(ctx, lister, "users", mapi.NewQueryParams())
//	for it.HasNext() {
//	  user, err := it.Next()
//	  if err != nil { break }
//	  _ = user
//	}
//
// or fetch all pages at once:
//
//	all, err := mapi.FetchAllPages(ctx, lister, "users", nil, mapi.DefaultPaginationOptions())
//	if err != nil { /* handle error */ }
//	_ = all
//
// Every pagination helper fetches strictly one page at a time and stops at
// the configured MaxPages bound, failing with a PaginationLimitError when a
// server never signals a terminal page.
//
// # Errors
//
// Failures are classified into AuthenticationError (401/403), RequestError
// (other non-2xx), NetworkError (transport), and MalformedResponseError (bad
// JSON or missing fields). Helpers such as IsNotFound, IsAuthenticationError,
// and IsPaginationLimitExceeded make it easy to branch on common cases.
//
// # Interceptors and caching
//
// The package includes generic building blocks such as request/response
// interceptors (for logging, auth headers, metrics, rate limiting, circuit
// breaking) and a simple pluggable Cache abstraction with in-memory and NATS
// KV backends. The parlaclient package composes these pieces for a sensible
// default client; applications with advanced needs can also use these
// primitives directly. Caching is disabled unless configured.
package mapi
