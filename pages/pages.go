package pages

import (
	"fmt"
	"html"
)

var index = `
<!DOCTYPE html>
<html>
<head>
    <title>Vinylogue</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            background: #18181b;
            color: #fafafa;
        }
        code {
            background: #27272a;
            padding: 2px 6px;
            border-radius: 4px;
        }
        img {
            max-width: 100%%;
        }
    </style>
</head>
<body>
    <h1>Vinylogue</h1>
    <p>Album cards for embedding anywhere. Request one with:</p>
    <pre><code>%s/album-card?artist=Radiohead&amp;album=OK%%20Computer</code></pre>
    <img src="%s/album-card?artist=Radiohead&amp;album=OK%%20Computer" alt="OK Computer by Radiohead">
    <h2>Other endpoints</h2>
    <ul>
        <li><code>/artist?name=</code> artist details, top tracks, albums and related artists</li>
        <li><code>/search?q=</code> albums and artists matching a query</li>
        <li><code>/cards/recent</code> and <code>/cards/popular</code> render history, when enabled</li>
    </ul>
</body>
</html>`

// Index renders the landing page with examples pointing at baseURL.
func Index(baseURL string) string {
	escaped := html.EscapeString(baseURL)
	return fmt.Sprintf(index, escaped, escaped)
}
