package templates

// LogView template for displaying the accepted submissions in a list.
const LogView = `
{{define "content"}}
	<div class="repository file list">
		<div class="ui container">
			<p id="repo-desc">
			<span class="description">Submissions</span>
			</p>
			<table id="submissions-table" class="ui unstackable fixed single line table">
				<tbody>
					{{range $sub := .submissions}}
						<tr>
							<td class="name two wide">S{{$sub.ID}}</td>
							<td class="name text bold four wide"><a href="/log/{{$sub.ID}}">{{$sub.FormID}}</a></td>
							<td class="name four wide">{{$sub.SubmitTime.Format "15:04:05 Mon Jan 2 2006"}}</td>
							<td class="name six wide">{{$sub.UsedFieldNames}}</td>
						</tr>
					{{end}}
				</tbody>
			</table>
		</div>
	</div>
{{end}}
`

// SubmissionView shows the values of a single submission.
const SubmissionView = `
{{define "content"}}
	<div class="ui container">
		<h3 class="ui header">Submission S{{.submission.ID}} ({{.submission.FormID}})</h3>
		<div>Submitted {{.submission.SubmitTime.Format "15:04:05 Mon Jan 2 2006"}}</div>
		<table class="ui definition table">
			<tbody>
				{{range $name := .names}}
					<tr>
						<td class="four wide">{{$name}}</td>
						<td>{{index $.submission.ValueMap $name}}</td>
					</tr>
				{{end}}
			</tbody>
		</table>
	</div>
{{end}}
`
