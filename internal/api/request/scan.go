package request

// ScanURL is the request body for the website, API, and multi-agent scans.
type ScanURL struct {
	URL string `json:"url" validate:"required,max=2000"`
}

// AnalyzeQR is the request body for QR payload analysis. Payload is
// base64-encoded decoded QR content.
type AnalyzeQR struct {
	Payload string `json:"payload" validate:"required,max=100000"`
}

// ScanStatic is the request body for static content analysis.
type ScanStatic struct {
	Name    string `json:"name" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=100000"`
}
