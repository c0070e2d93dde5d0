package templates

// Layout is the main site template. It includes the header and footer and
// embeds the content for every other page.
var Layout = `
{{ define "layout" }}
<!DOCTYPE html>
<html>
	<head>
		<link rel="stylesheet" href="/assets/semantic-2.3.1.min.css">
		<link rel="stylesheet" href="/assets/custom.css">
		<title>{{ if .title }}{{ .title }}{{ else }}Re:Form{{ end }}</title>
	</head>
	<body>
		<div class="full height">
			<div class="following bar light">
				<div class="ui container">
					<div class="ui top secondary menu">
						<a class="item" href="/">Form</a>
						<a class="item" href="/log">Submissions</a>
					</div>
				</div>
			</div>
			{{ template "content" . }}
		</div>
		<footer>
			<div class="ui container">
				<div class="ui center links item brand footertext">re:form</div>
			</div>
		</footer>
	</body>
</html>
{{ end }}
`
