package health

import (
	"bytes"
	"fmt"
	"html/template"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>MyInvestments · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body { font-family: system-ui, sans-serif; background: #f8f9fa; color: #1e293b; margin: 0; padding: 40px 20px; }
    .wrap { max-width: 900px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 8px; }
    .issue h1 { color: #b91c1c; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; margin-top: 24px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px rgba(0,0,0,0.05); }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 2px; color: #94a3b8; margin-bottom: 12px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; }
    .ok { color: #047857; } .err { color: #dc2626; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body class="{{.Status}}">
  <div class="wrap">
    <h1>{{if eq .Status "ok"}}All Systems Operational{{else}}System Issues Detected{{end}}</h1>
    <p>Ledger API health. Raw data at <a href="/health/json">/health/json</a>, failures at <a href="/health/errors">/health/errors</a>.</p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="row"><span>Requests</span><span>{{.Traffic.TotalRequests}}</span></div>
        <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg latency</span><span>{{.AvgLatency}} ms</span></div>
      </div>
      <div class="card">
        <div class="label">Resources</div>
        <div class="row"><span>Uptime</span><span>{{.Uptime}}</span></div>
        <div class="row"><span>Heap used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Host memory</span><span>{{.Runtime.Memory.HostUsedPct}}%</span></div>
        <div class="row"><span>Load avg</span><span>{{index .Runtime.CPU.LoadAvg 0}}</span></div>
        <div class="row"><span>Platform</span><span>{{.Runtime.Platform}}</span></div>
      </div>
      <div class="card">
        <div class="label">Connectivity</div>
        {{range $name, $dep := .Dependencies}}
        <div class="row"><span>{{$name}}</span><span class="{{if eq $dep.Status "connected"}}ok{{else}}err{{end}}">{{$dep.Status}}</span></div>
        {{end}}
      </div>
    </div>
  </div>
</body>
</html>`))

type dashboardView struct {
	CollectResult
	AvgLatency string
	Uptime     string
}

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) (string, error) {
	s := health.Runtime.UptimeSeconds
	view := dashboardView{
		CollectResult: health,
		AvgLatency:    fmt.Sprint(health.Traffic.AvgResponseTime),
		Uptime:        fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60),
	}
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
