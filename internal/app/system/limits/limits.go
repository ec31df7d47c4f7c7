// internal/app/system/limits/limits.go
package limits

// Request body size limits for form posts.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxSectorFormSize bounds sector create/edit submissions. The long
	// description and case study are the only large fields.
	MaxSectorFormSize = 256 << 10 // 256 KB

	// MaxLoginFormSize bounds the sign-in form.
	MaxLoginFormSize = 8 << 10 // 8 KB
)
