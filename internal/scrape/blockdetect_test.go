package scrape

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{name: "cloudflare ray header", status: 403, header: http.Header{"Cf-Ray": {"abc123"}}, want: BlockCloudflare},
		{name: "cloudflare server header", status: 503, header: http.Header{"Server": {"Cloudflare"}}, want: BlockCloudflare},
		{name: "cloudflare header on 200", status: 200, header: http.Header{"Cf-Ray": {"abc123"}}, body: "<ul class=\"jobs\"></ul>", want: BlockNone},
		{name: "browser check page", status: 200, body: "<title>Just a moment</title>Checking your browser before accessing", want: BlockCloudflare},
		{name: "recaptcha widget", status: 200, body: `<div class="g-recaptcha" data-sitekey="x"></div>`, want: BlockCaptcha},
		{name: "js shell", status: 200, body: "<html><noscript>Please enable JavaScript to view jobs</noscript></html>", want: BlockJSShell},
		{name: "listing page", status: 200, body: `<div class="job-card"><h3>Onboarding Specialist</h3></div>`, want: BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if h == nil {
				h = http.Header{}
			}
			resp := &http.Response{StatusCode: tt.status, Header: h}
			assert.Equal(t, tt.want, DetectBlock(resp, []byte(tt.body)))
		})
	}
}

func TestDetectBlock_NilResponse(t *testing.T) {
	assert.Equal(t, BlockNone, DetectBlock(nil, []byte("captcha")))
}
