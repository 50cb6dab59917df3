package messaging

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 24px; background-color: #f3f4f6; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #111827; line-height: 1.5; }
    .container { max-width: 640px; margin: 0 auto; background: #ffffff; border-radius: 8px; border: 1px solid #e5e7eb; overflow: hidden; }
    .header { padding: 20px 24px; background: #1f2937; color: #ffffff; }
    .title { font-size: 20px; font-weight: 700; }
    .badge { display: inline-block; margin-top: 8px; padding: 4px 10px; font-size: 12px; font-weight: 600; border-radius: 4px; background: #059669; }
    .section { padding: 16px 24px; border-top: 1px solid #f3f4f6; }
    .section-title { font-size: 11px; font-weight: 700; color: #6b7280; text-transform: uppercase; letter-spacing: 0.1em; margin-bottom: 8px; }
    ul { margin: 0; padding-left: 18px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="title">{{.Title}}</div>
      <span class="badge">{{.Band}} match &middot; {{.Percentage}}%</span>
    </div>
    {{if .Message}}<div class="section">{{.Message}}</div>{{end}}
    {{if .Matched}}
    <div class="section">
      <div class="section-title">Matched skills</div>
      <ul>{{range .Matched}}<li><strong>{{.Name}}</strong>: {{.Skills}}</li>{{end}}</ul>
    </div>
    {{end}}
    {{if .Missing}}
    <div class="section">
      <div class="section-title">Skills to develop</div>
      <ul>{{range .Missing}}<li>{{.}}</li>{{end}}</ul>
    </div>
    {{end}}
  </div>
</body>
</html>
`
