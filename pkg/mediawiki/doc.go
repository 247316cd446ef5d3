// Package mediawiki provides a client for the MediaWiki action API as served
// by Wikimedia Commons.
//
// Every call is a single GET with action=query and format=json merged under
// the caller's parameters. Two request shapes are used on top of Query:
//
//	client := mediawiki.NewClient(0, log)
//
//	page, err := client.Search(ctx, "lighthouse", 50, nil)
//	for _, hit := range page.Query.Search {
//	    info, err := client.ImageInfo(ctx, hit.Title)
//	    // info.URL, info.Size, info.Mime
//	}
//
// Failures are *errors.Error values typed as network, http_status, parsing,
// structure (a response missing query/search/pages) or api (an error object
// in a 200 response).
package mediawiki
