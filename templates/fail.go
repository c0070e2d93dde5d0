package templates

// Fail renders an error page with the status and a message.
var Fail = `
{{ define "content" }}

<br><br>
<h1>{{ .StatusCode }}: {{ .StatusText }}</h1>
<div class="ui negative message">
{{ .Message }}
</div>
<a href="/">Back to the form</a>

{{ end }}
`
