// Package sdk is the Go client for the visearch HTTP API.
//
// A search streams phase events as they happen:
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//	events, err := client.Search(ctx, sdk.SearchRequest{
//		Image:    imageBytes,
//		MIMEType: "image/jpeg",
//	})
//	if err != nil {
//		return err
//	}
//	for e := range events {
//		// e.Phase: candidates, results, not-furniture, error
//	}
//
// Session tracks the reception state machine for UIs that issue
// overlapping searches; events from superseded searches are discarded.
package sdk
