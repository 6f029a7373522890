// Package http provides the HTTP client used to fetch the SteamCMD installer.
//
// The Client in this package handles:
//   - User-Agent header
//   - File downloads with progress tracking
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(5 * time.Minute)
//
//	// Download file with progress callback
//	client.DownloadFile(ctx, archiveURL, "/tmp/steamcmd_linux.tar.gz", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
