// Package files locates institutions feed snapshots on disk and stores
// downloaded ones.
//
// Discovery finds feed files (.csv or .xlsx) in a directory and picks the
// most recent one. Manager writes files into the data tree atomically.
//
// Example usage:
//
//	feed, err := files.NewDiscovery(paths.BaseDir).LatestFeed(paths.DownloadsDir)
//	if err != nil {
//		return err
//	}
//	table, err := dataprocessing.ReadTable(feed.Path)
package files
