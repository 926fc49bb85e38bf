package web

import "html/template"

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; background-color: #f5f5f5; }
        .layout { display: flex; min-height: 100vh; }
        .sidebar { width: 280px; background: white; padding: 20px; box-shadow: 2px 0 4px rgba(0,0,0,0.1); }
        .sidebar label { display: block; margin-top: 12px; font-weight: 500; color: #555; }
        .sidebar input { width: 100%; padding: 6px; margin-top: 4px; box-sizing: border-box; }
        .sidebar button { margin-top: 20px; width: 100%; padding: 10px; font-weight: bold; }
        .main { flex: 1; max-width: 800px; padding: 20px 40px; }
        .values { border-collapse: collapse; width: 100%; background: white; }
        .values th, .values td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
        .result { padding: 12px; border-radius: 6px; font-weight: bold; margin-top: 10px; }
        .success { background-color: #d4edda; color: #155724; }
        .failure { background-color: #f8d7da; color: #721c24; }
        .error { background-color: #fff3cd; color: #856404; }
    </style>
</head>
<body>
<form method="POST" action="/predict" class="layout">
    <div class="sidebar">
        <h2>Input Features</h2>
        {{range .Fields}}
        <label for="{{.Key}}">{{.Label}}</label>
        <input type="number" id="{{.Key}}" name="{{.Key}}" min="{{.Min}}" max="{{.Max}}" step="{{.Step}}" value="{{.Value}}" required>
        {{end}}
        <button type="submit">Predict</button>
    </div>
    <div class="main">
        <h1>{{.Heading}}</h1>
        <p>{{.Description}}</p>

        <h3>{{.EnteredHeading}}</h3>
        <table class="values">
            <tr>{{range .Fields}}<th>{{.Label}}</th>{{end}}</tr>
            <tr>{{range .Fields}}<td>{{.Value}}</td>{{end}}</tr>
        </table>

        {{if .Error}}
        <div class="result error" role="alert">{{.Error}}</div>
        {{end}}

        {{with .Result}}
        <h3>{{$.ResultHeading}}</h3>
        <div class="result {{if .Passed}}success{{else}}failure{{end}}">{{.Text}}</div>
        {{end}}
    </div>
</form>
</body>
</html>
`

var page = template.Must(template.New("page").Parse(pageTemplate))
