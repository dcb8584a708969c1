package board

import (
	"fmt"
	"net/http"
)

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>PulseBoard</title>
  <style>
    :root {
      --ink: #14201c;
      --paper: #f6f8f4;
      --card: #ffffff;
      --line: #d4ddd2;
      --accent: #2f855a;
      --accent-2: #d69e2e;
      --danger: #c53030;
      --muted: #6c7a72;
      --cell-0: #ebf1ea;
      --cell-1: #b7dfc0;
      --cell-2: #7cc795;
      --cell-3: #3ea46c;
      --cell-4: #1f7a4d;
      --shadow: 0 14px 30px rgba(20, 32, 28, 0.12);
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      font-family: "Space Grotesk", "Avenir Next", "Segoe UI", sans-serif;
      color: var(--ink);
      background:
        radial-gradient(900px 420px at -5% -10%, rgba(214, 158, 46, 0.14), transparent 60%),
        radial-gradient(900px 480px at 108% -8%, rgba(47, 133, 90, 0.16), transparent 65%),
        linear-gradient(150deg, #f8faf5 0%, #eef4ee 50%, #ffffff 100%);
      min-height: 100vh;
      padding: 20px;
    }

    .shell {
      max-width: 1180px;
      margin: 0 auto;
      display: grid;
      gap: 14px;
    }

    .bar, .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 16px;
      padding: 16px;
      box-shadow: var(--shadow);
    }

    h1 { margin: 0; font-size: clamp(1.2rem, 2vw, 1.7rem); letter-spacing: 0.02em; }
    h2 { margin: 0 0 10px; font-size: 1rem; }
    .sub { margin-top: 6px; color: var(--muted); font-size: 0.9rem; }

    .status { font-size: 0.85rem; padding: 3px 10px; border-radius: 999px; border: 1px solid var(--line); }
    .status.ok { color: var(--accent); }
    .status.warn { color: var(--accent-2); }
    .status.err { color: var(--danger); }

    .columns { display: grid; gap: 14px; grid-template-columns: 2fr 1fr; }
    @media (max-width: 900px) { .columns { grid-template-columns: 1fr; } }

    .progress-row { display: grid; gap: 10px; grid-template-columns: repeat(3, 1fr); }
    .meter { height: 10px; border-radius: 999px; background: var(--cell-0); overflow: hidden; }
    .meter > span { display: block; height: 100%; background: var(--accent); }
    .meter-label { display: flex; justify-content: space-between; font-size: 0.82rem; color: var(--muted); margin-bottom: 4px; }

    table.habits { width: 100%; border-collapse: collapse; font-size: 0.8rem; }
    table.habits th, table.habits td { border: 1px solid var(--line); padding: 3px; text-align: center; }
    table.habits th.name, table.habits td.name { text-align: left; padding-left: 8px; white-space: nowrap; }
    td.cell { cursor: pointer; width: 22px; height: 22px; }
    td.cell.done { background: var(--cell-3); }
    td.cell:hover { outline: 2px solid var(--accent-2); }
    body.loading td.cell { cursor: wait; opacity: 0.55; }

    .heatmap { display: grid; grid-auto-flow: column; gap: 3px; overflow-x: auto; padding-bottom: 4px; }
    .heatmap .week { display: grid; grid-template-rows: repeat(7, 12px); gap: 3px; }
    .heatmap .day { width: 12px; height: 12px; border-radius: 3px; background: var(--cell-0); }
    .heatmap .day.l1 { background: var(--cell-1); }
    .heatmap .day.l2 { background: var(--cell-2); }
    .heatmap .day.l3 { background: var(--cell-3); }
    .heatmap .day.l4 { background: var(--cell-4); }
    .heatmap .day.empty { background: transparent; }
    .feed-meta { margin-top: 8px; color: var(--muted); font-size: 0.8rem; }
    .feed-meta .synthetic { color: var(--accent-2); }

    .bars { display: flex; align-items: flex-end; gap: 3px; height: 90px; }
    .bars .bar-col { flex: 1; background: var(--cell-2); border-radius: 3px 3px 0 0; min-height: 2px; }
  </style>
</head>
<body class="loading">
  <div class="shell">
    <div class="bar">
      <div style="display:flex; justify-content:space-between; align-items:center; gap:10px;">
        <div>
          <h1>PulseBoard</h1>
          <div class="sub" id="month-label">&nbsp;</div>
        </div>
        <span class="status warn" id="status">loading state&hellip;</span>
      </div>
    </div>

    <div class="card">
      <div class="progress-row">
        <div>
          <div class="meter-label"><span>Month</span><span id="pct-month">0%</span></div>
          <div class="meter"><span id="meter-month" style="width:0%"></span></div>
        </div>
        <div>
          <div class="meter-label"><span>Weekly goals</span><span id="pct-week">0%</span></div>
          <div class="meter"><span id="meter-week" style="width:0%"></span></div>
        </div>
        <div>
          <div class="meter-label"><span>Monthly checklist</span><span id="pct-checklist">0%</span></div>
          <div class="meter"><span id="meter-checklist" style="width:0%"></span></div>
        </div>
      </div>
    </div>

    <div class="columns">
      <div class="card">
        <h2>Daily habits</h2>
        <div style="overflow-x:auto;"><table class="habits" id="daily-grid"></table></div>
      </div>
      <div style="display:grid; gap:14px;">
        <div class="card">
          <h2>Weekly</h2>
          <table class="habits" id="weekly-grid"></table>
        </div>
        <div class="card">
          <h2>Monthly</h2>
          <table class="habits" id="monthly-grid"></table>
        </div>
      </div>
    </div>

    <div class="card">
      <h2>This week</h2>
      <div class="bars" id="weekday-bars"></div>
    </div>

    <div class="card">
      <h2>Code contributions</h2>
      <div class="heatmap" id="heatmap-contributions"></div>
      <div class="feed-meta" id="meta-contributions"></div>
    </div>

    <div class="card">
      <h2>Typing practice</h2>
      <div class="heatmap" id="heatmap-typing"></div>
      <div class="feed-meta" id="meta-typing"></div>
    </div>
  </div>

  <script>
    (function () {
      const statusEl = document.getElementById("status");
      let widgets = null;

      function setStatus(text, cls) {
        statusEl.textContent = text;
        statusEl.className = "status " + cls;
      }

      async function request(path, options) {
        const response = await fetch(path, options);
        const text = await response.text();
        let data = {};
        try { data = text ? JSON.parse(text) : {}; } catch (err) { data = {}; }
        if (!response.ok) {
          const code = data.code ? String(data.code) : "error";
          const msg = data.message ? String(data.message) : response.statusText;
          const error = new Error(code + ": " + msg);
          error.code = code;
          throw error;
        }
        return data;
      }

      async function toggle(habit, resolution, period) {
        try {
          await request("/api/toggle", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({
              habit: habit,
              resolution: resolution,
              year: widgets.month.year,
              month0: widgets.month.month0,
              period: period,
            }),
          });
          await refresh();
        } catch (err) {
          setStatus(String(err.message || err), "err");
        }
      }

      function renderGrid(tableId, habits, completions, resolution, columns, keyFor) {
        const table = document.getElementById(tableId);
        table.replaceChildren();
        const head = document.createElement("tr");
        const corner = document.createElement("th");
        corner.className = "name";
        head.appendChild(corner);
        columns.forEach(function (col) {
          const th = document.createElement("th");
          th.textContent = col.label;
          head.appendChild(th);
        });
        table.appendChild(head);

        habits.forEach(function (habit) {
          const tr = document.createElement("tr");
          const name = document.createElement("td");
          name.className = "name";
          name.textContent = habit;
          tr.appendChild(name);
          columns.forEach(function (col) {
            const td = document.createElement("td");
            td.className = "cell";
            if (completions[keyFor(habit, col.period)]) {
              td.classList.add("done");
            }
            td.addEventListener("click", function () {
              toggle(habit, resolution, col.period);
            });
            tr.appendChild(td);
          });
          table.appendChild(tr);
        });
      }

      function renderHeatmap(hostId, metaId, widget) {
        const host = document.getElementById(hostId);
        const meta = document.getElementById(metaId);
        host.replaceChildren();
        if (!widget) {
          meta.textContent = "no data yet";
          return;
        }
        (widget.weeks || []).forEach(function (week) {
          const col = document.createElement("div");
          col.className = "week";
          week.forEach(function (day) {
            const cell = document.createElement("div");
            cell.className = "day";
            if (day.level < 0) {
              cell.classList.add("empty");
            } else if (day.level > 0) {
              cell.classList.add("l" + Math.min(day.level, 4));
            }
            if (day.date && day.level >= 0) {
              cell.title = day.date.slice(0, 10) + ": " + day.count;
            }
            col.appendChild(cell);
          });
          host.appendChild(col);
        });
        let text = "total " + widget.total + " · today " + widget.today;
        meta.replaceChildren(document.createTextNode(text));
        if (widget.synthetic) {
          const tag = document.createElement("span");
          tag.className = "synthetic";
          tag.textContent = " · placeholder data";
          meta.appendChild(tag);
        }
      }

      function renderWeekdays(points) {
        const host = document.getElementById("weekday-bars");
        host.replaceChildren();
        (points || []).forEach(function (point) {
          const bar = document.createElement("div");
          bar.className = "bar-col";
          bar.style.height = Math.max(2, point.value) + "%";
          bar.title = point.day + ": " + point.value + "%";
          host.appendChild(bar);
        });
      }

      function render() {
        const month = widgets.month;
        document.getElementById("month-label").textContent = month.label;
        document.body.classList.toggle("loading", widgets.phase !== "hydrated");
        setStatus(widgets.phase === "hydrated" ? "synced" : "loading state…",
          widgets.phase === "hydrated" ? "ok" : "warn");

        document.getElementById("pct-month").textContent = widgets.progress.monthlyPercent + "%";
        document.getElementById("meter-month").style.width = widgets.progress.monthlyPercent + "%";
        document.getElementById("pct-week").textContent = widgets.progress.weeklyPercent + "%";
        document.getElementById("meter-week").style.width = widgets.progress.weeklyPercent + "%";
        document.getElementById("pct-checklist").textContent = widgets.progress.checklistPercent + "%";
        document.getElementById("meter-checklist").style.width = widgets.progress.checklistPercent + "%";

        const dayCols = [];
        for (let day = 1; day <= month.days; day++) {
          dayCols.push({ label: String(day), period: day });
        }
        renderGrid("daily-grid", widgets.catalog.daily, widgets.completions.daily, "daily", dayCols,
          function (habit, day) { return habit + "_" + month.year + "_" + month.month0 + "_" + day; });

        const weekCols = [0, 1, 2, 3].map(function (week) {
          return { label: "W" + (week + 1), period: week };
        });
        renderGrid("weekly-grid", widgets.catalog.weekly, widgets.completions.weekly, "weekly", weekCols,
          function (habit, week) { return habit + "_" + month.year + "_" + month.month0 + "_W" + week; });

        renderGrid("monthly-grid", widgets.catalog.monthly, widgets.completions.monthly, "monthly",
          [{ label: month.label.split(" ")[0], period: 0 }],
          function (habit) { return habit + "_" + month.year + "_" + month.month0; });

        renderWeekdays(widgets.weekdays);
        renderHeatmap("heatmap-contributions", "meta-contributions", widgets.heatmaps.contributions);
        renderHeatmap("heatmap-typing", "meta-typing", widgets.heatmaps.typing);
      }

      async function refresh() {
        try {
          widgets = await request("/api/widgets");
          render();
        } catch (err) {
          setStatus(String(err.message || err), "err");
        }
      }

      function listen() {
        const proto = location.protocol === "https:" ? "wss://" : "ws://";
        const socket = new WebSocket(proto + location.host + "/api/stream");
        socket.onmessage = function () { refresh(); };
        socket.onclose = function () { setTimeout(listen, 3000); };
      }

      refresh();
      listen();
    })();
  </script>
</body>
</html>`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, dashboardHTML)
}
