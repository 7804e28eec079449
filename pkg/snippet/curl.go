package snippet

import (
	"github.com/reqlab/reqlab/pkg/curl"
	"github.com/reqlab/reqlab/pkg/request"
)

type curlGenerator struct{}

func (curlGenerator) Target() Target   { return TargetCurl }
func (curlGenerator) Label() string    { return "cURL" }
func (curlGenerator) Language() string { return "bash" }

func (curlGenerator) Generate(r *request.Request) string {
	return curl.Format(r)
}
