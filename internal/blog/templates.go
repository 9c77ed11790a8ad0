package blog

const indexTemplate = `<div class="container"><h1>Blog</h1><div class="blog-list">
{{- range .}}
<div class="blog-card">
  <h3><a href="{{.Link}}">{{.Title}}</a></h3>
  <div class="meta">{{.DateLabel}} &bull; {{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>
  <p>{{.Summary}}</p>
  <a href="{{.Link}}" class="read-more">Read Article &rarr;</a>
</div>
{{- end}}
</div></div>
`

const postTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  {{- with .Summary}}
  <meta name="description" content="{{.}}">
  {{- end}}
  <link rel="stylesheet" href="../assets/css/style.css">
</head>
<body>
  <article class="container blog-post">
    <a href="../index.html#blog" class="back-link">&larr; Back to Blog</a>
    <h1>{{.Title}}</h1>
    <div class="meta">{{.DateLabel}}{{range .Tags}} <span class="tag">{{.}}</span>{{end}}</div>
    <div class="post-content">
{{.Content}}
    </div>
  </article>
</body>
</html>
`
