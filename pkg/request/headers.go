package request

// DefaultHeaders returns the headers a fresh request editor starts with.
func DefaultHeaders() []Header {
	return []Header{
		{Key: "Content-Type", Value: "application/json"},
		{Key: "Accept", Value: "application/json"},
		{Key: "", Value: ""},
	}
}

// CommonHeaders lists header names offered for autocompletion.
var CommonHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Accept-Language",
	"Authorization",
	"Cache-Control",
	"Content-Type",
	"Content-Length",
	"Content-Encoding",
	"Cookie",
	"Host",
	"Origin",
	"Referer",
	"User-Agent",
	"X-API-Key",
	"X-Auth-Token",
	"X-Forwarded-For",
	"X-Requested-With",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"If-Modified-Since",
	"If-None-Match",
	"Last-Modified",
	"ETag",
	"Location",
	"Set-Cookie",
	"WWW-Authenticate",
	"X-Rate-Limit-Limit",
	"X-Rate-Limit-Remaining",
	"X-Rate-Limit-Reset",
}
