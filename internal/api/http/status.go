package http

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusOperational is reported while the relay accepts traffic.
const StatusOperational = "operational"

// StatusReport is the body of GET /.
type StatusReport struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Timestamp     string `json:"timestamp"`
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Service}}</title>
</head>
<body>
<main>
<h1>{{.Service}}</h1>
<p id="status" data-status="{{.Status}}">Status: {{.Status}}</p>
<dl>
<dt>Version</dt><dd id="version">{{.Version}}</dd>
<dt>Environment</dt><dd id="environment">{{.Environment}}</dd>
<dt>Uptime</dt><dd id="uptime" data-seconds="{{.UptimeSeconds}}">{{.Uptime}}</dd>
<dt>Checked</dt><dd id="timestamp">{{.Timestamp}}</dd>
</dl>
</main>
</body>
</html>
`))

// Root reports service status as JSON, or as an HTML page when the client
// prefers text/html.
func (h *Handlers) Root(c *gin.Context) {
	report := h.statusReport()

	switch c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) {
	case gin.MIMEHTML:
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := statusPage.Execute(c.Writer, report); err != nil {
			_ = c.Error(err)
		}
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (h *Handlers) statusReport() StatusReport {
	now := h.now()
	uptime := now.Sub(h.info.Started).Truncate(time.Second)
	return StatusReport{
		Status:        StatusOperational,
		Service:       h.info.Name,
		Version:       h.info.Version,
		Environment:   h.info.Environment,
		Uptime:        uptime.String(),
		UptimeSeconds: int64(uptime / time.Second),
		Timestamp:     now.UTC().Format(time.RFC3339),
	}
}
