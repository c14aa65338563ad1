package web

import (
	"html/template"
	"net/http"
)

// Browser-facing result pages for the hosted-checkout redirects. Members
// land here straight from the gateway, so the pages carry no session and
// reveal nothing beyond the outcome text.

type resultKind struct {
	Title   string
	Heading string
	Tone    string // maps to a CSS class
}

var (
	resultSuccess    = resultKind{"Payment confirmed", "Payment confirmed", "ok"}
	resultProcessing = resultKind{"Payment processing", "Hold on a moment", "wait"}
	resultFailed     = resultKind{"Payment failed", "Payment not completed", "err"}
	resultCancelled  = resultKind{"Payment cancelled", "Payment cancelled", "err"}
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}} · GetFit</title>
<style>body{font-family:sans-serif;max-width:480px;margin:10vh auto;text-align:center}
.ok{color:#0a7a33}.wait{color:#8a6d00}.err{color:#b00020}</style></head>
<body><h2 class="{{.Tone}}">{{.Heading}}</h2>
<p>{{.Msg}}</p>
<p>You can close this window and return to the GetFit app.</p></body></html>`))

func renderResult(w http.ResponseWriter, code int, kind resultKind, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, map[string]any{
		"Title":   kind.Title,
		"Heading": kind.Heading,
		"Tone":    kind.Tone,
		"Msg":     msg,
	})
}
