// Package roster is a Go client kit for the roster workforce API. It
// bundles the session/token lifecycle manager, the authenticated request
// pipeline, durable credential storage, a navigation guard and an address
// autocomplete client into one wired facade.
//
// Most applications only need New:
//
//	var cfg config.Config
//	config.MustLoad(&cfg)
//
//	client, err := roster.New(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	profile, err := client.Session.Login(ctx, session.LoginRequest{
//	    Identifier: "worker@example.com",
//	    Secret:     "hunter2",
//	})
//
//	// Business calls renew their own credentials on 401 transparently.
//	resp, err := client.HTTP.Get(cfg.APIBaseURL + "/roster/shifts/")
//
// The individual packages under pkg/ stand alone; the facade only wires
// them together.
package roster
