package handler

import (
	"html/template"
	"net/http"
)

// The original app rendered full Twig views; these are the minimal server
// side equivalents for the form flow and the 404 page.

type indexData struct {
	Success  string
	Error    string
	Link     string
	Redirect string
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Grue | Simple URL Shortener</title></head>
<body>
<h1>Grue</h1>
<form method="POST" action="/">
  <input type="url" name="grue-link" placeholder="Paste a long URL">
  <button type="submit">Shorten</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Success}}
<p>{{.Success}}</p>
<p><a href="{{.Link}}">{{.Link}}</a> &rarr; {{.Redirect}}</p>
{{end}}
</body>
</html>
`))

var notFoundTmpl = template.Must(template.New("404").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Grue | Not Found</title></head>
<body>
<h1>404</h1>
<p>That short link does not exist.</p>
<p><a href="/">Shorten a new one</a></p>
</body>
</html>
`))

func renderIndex(w http.ResponseWriter, status int, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = indexTmpl.Execute(w, data)
}

func renderNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = notFoundTmpl.Execute(w, nil)
}
