package templates

// Form renders a complete form page.  The div.form region holds the fields
// only; it is what ajax submissions replace.
const Form = `
{{ define "content" }}
			<div class="reform">
				<div class="ui middle very relaxed page grid">
					<div class="column">
						<form id="{{.form.ID}}" class="ui form" action="/{{.form.ID}}.html" method="post">
							<h3 class="ui top attached header">
								{{.form.Name}}
							</h3>
							{{with .form.Description}}<p class="description">{{.}}</p>{{end}}
							<div class="ui attached segment">
								<div class="form">
									{{ template "fields" . }}
								</div>
								<div class="inline field">
									<label></label>
									<button type="submit" class="ui green button submit">Submit</button>
								</div>
							</div>
						</form>
					</div>
				</div>
			</div>
{{ end }}
`

// Fields renders the inner part of a form: the notice of the last accepted
// submission, and every field with its error message slot.
const Fields = `
{{ define "fields" }}
{{if .notice}}
	<div class="ui positive message notice">{{.notice}}</div>
{{end}}
{{range $page := .pages}}
	{{with $page.Description}}<p class="page description">{{.}}</p>{{end}}
	{{range $field := $page.Fields}}
		{{$elem := $field.Element}}
		<div class="inline {{if $elem.Required}}required{{end}} field">
			<label for="{{$elem.ID}}">{{$elem.Label}}</label>
			{{if eq $elem.Type "textarea"}}
				<textarea id="{{$elem.ID}}" {{if $field.Error}}class="error"{{end}} name="{{$elem.Name}}" {{if $elem.ReadOnly}}readonly{{end}}>{{$elem.Value}}</textarea>
			{{else if eq $elem.Type "select"}}
				<select id="{{$elem.ID}}" {{if $field.Error}}class="error"{{end}} name="{{$elem.Name}}" {{if $elem.ReadOnly}}readonly{{end}}>
					{{range $opt := $field.Options}}
						<option value="{{$opt.Value}}" {{if $opt.Checked}}selected{{end}}>{{$opt.Value}}</option>
					{{end}}
				</select>
			{{else if eq $elem.Type "radio"}}
				{{range $opt := $field.Options}}
					<input id="{{$opt.ID}}" {{if $field.Error}}class="error"{{end}} type="radio" name="{{$elem.Name}}" value="{{$opt.Value}}" {{if $opt.Checked}}checked{{end}} {{if $elem.ReadOnly}}readonly{{end}}>
					<label for="{{$opt.ID}}">{{$opt.Value}}</label>
				{{end}}
			{{else if eq $elem.Type "checkbox"}}
				<input id="{{$elem.ID}}" type="checkbox" {{if $field.Error}}class="error"{{end}} name="{{$elem.Name}}" {{if $elem.Value}}checked{{end}} {{if $elem.ReadOnly}}readonly{{end}}>
			{{else}}
				<input id="{{$elem.ID}}" {{if $field.Error}}class="error"{{end}} {{with $elem.Type}}type="{{.}}"{{end}} name="{{$elem.Name}}" value="{{$elem.Value}}" {{if $elem.ReadOnly}}readonly{{end}} {{if $field.Options}}list="{{$elem.ID}}_list"{{end}}>
				{{if $field.Options}}
					<datalist id="{{$elem.ID}}_list">
						{{range $opt := $field.Options}}<option value="{{$opt.Value}}">{{end}}
					</datalist>
				{{end}}
			{{end}}
			<span id="{{$field.ErrorID}}" class="error_msg" {{if not $field.Error}}style="display: none"{{end}}>{{$field.Error}}</span>
			{{with $elem.Description}}<span class="help">{{.}}</span>{{end}}
		</div>
	{{end}}
{{end}}
{{ end }}
`
