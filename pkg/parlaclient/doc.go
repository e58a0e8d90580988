// Package parlaclient provides the primary entry point for constructing a
// management API client that implements the mapi.Client interface.
//
// It layers endpoint normalization, HTTP transport, and authentication on top
// of the resource interfaces and types defined in the mapi package. Most
// applications should import parlaclient to build a client, then use the
// returned mapi.Client to access resource-specific clients, for example
// Users(), Organisations(), AuditEvents(), and Projects().
//
// Quick start
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
//
//	  // With a deployment API key:
//	  cli, err := parlaclient.New(&mapi.Config{
//	    APIEndpoint: "https://api.parla.example.com",
//	    APIKey:      "mk-...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with management account credentials. Basic auth covers the
//	  // management routes; adding OrganisationID lets the client mint
//	  // short-lived super API keys for the API-key routes as well.
//	  cli, err = parlaclient.New(&mapi.Config{
//	    APIEndpoint:    "https://api.parla.example.com",
//	    Username:       "admin@example.com",
//	    Password:       "pass",
//	    OrganisationID: "org-id",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Use resource clients via the mapi.Client interface
//	  users, err := cli.Users().List(ctx, mapi.NewQueryParams().WithLimit(100))
//	  if err != nil { log.Fatal(err) }
//	  _ = users
//	}
//
// # TLS and development mode
//
// For local development, you can set Config.SkipTLSVerify=true. This is gated
// by the environment variable MAPI_DEV_MODE to avoid accidental insecure
// usage in production environments.
//
// # Helpers
//
// The package also provides convenience constructors NewWithAPIKey and
// NewWithPassword that wrap New with the appropriate configuration.
package parlaclient
