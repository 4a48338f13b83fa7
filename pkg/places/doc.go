// Package places wraps the Google Places API (New) for address
// autocomplete and address resolution. It is deliberately small: a Client
// for the two REST calls, and a Searcher that cancels the previous
// in-flight lookup whenever a new query is issued, so only the latest
// query's result is ever observed.
//
// The package holds no session state and does not go through the
// authenticated request pipeline; Places authenticates with its own API
// key header.
//
// # Usage
//
//	client := places.NewClient(apiKey)
//	searcher := places.NewSearcher(client)
//
//	suggestions, err := searcher.Search(ctx, "12 Main St Spring")
//	// ... user picks a suggestion ...
//	address, err := client.Details(ctx, suggestions[0].PlaceID)
package places
