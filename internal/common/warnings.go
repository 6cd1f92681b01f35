package common

// EnvironmentChecks is the outcome of the download environment probe.
type EnvironmentChecks struct {
	BlobSupport         bool `json:"blob_support"`
	HandleSupport       bool `json:"handle_support"`
	LinkDownloadSupport bool `json:"link_download_support"`
	SecureContext       bool `json:"secure_context"`
}

// All reports whether every check passed.
func (c EnvironmentChecks) All() bool {
	return c.BlobSupport && c.HandleSupport && c.LinkDownloadSupport && c.SecureContext
}

// Warning is a non-fatal environment problem.
type Warning struct {
	Key      string `json:"key"`
	Fallback string `json:"fallback"`
}

const (
	KeyWarnBlobNotSupported     = "warnings.blob_not_supported"
	KeyWarnURLNotSupported      = "warnings.url_not_supported"
	KeyWarnDownloadNotSupported = "warnings.download_not_supported"
	KeyWarnInsecureContext      = "warnings.insecure_context"
)

// CreateWarnings lists a warning for every failed check, in check order.
func CreateWarnings(checks EnvironmentChecks) []Warning {
	warnings := make([]Warning, 0, 4)

	if !checks.BlobSupport {
		warnings = append(warnings, Warning{Key: KeyWarnBlobNotSupported, Fallback: "Blob storage not supported"})
	}
	if !checks.HandleSupport {
		warnings = append(warnings, Warning{Key: KeyWarnURLNotSupported, Fallback: "Object handles not supported"})
	}
	if !checks.LinkDownloadSupport {
		warnings = append(warnings, Warning{Key: KeyWarnDownloadNotSupported, Fallback: "Output directory is not writable"})
	}
	if !checks.SecureContext {
		warnings = append(warnings, Warning{Key: KeyWarnInsecureContext, Fallback: "Insecure context may limit functionality"})
	}

	return warnings
}
