package api

// confirmHTML is the page blocked navigations land on. It decodes the
// ?url=&groupId=&tabId= contract and resolves through POST /api/v1/confirm.
const confirmHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Tab Fence — Confirm Navigation</title>
  <style>
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      background: #0d1117;
      color: #c9d1d9;
      display: flex;
      align-items: center;
      justify-content: center;
      min-height: 100vh;
    }
    .card {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 8px;
      padding: 32px;
      max-width: 520px;
      width: 90%;
    }
    h1 { margin: 0 0 8px; font-size: 20px; color: #e6edf3; }
    p { margin: 0 0 16px; color: #8b949e; font-size: 14px; line-height: 1.6; }
    .dest {
      background: #0d1117;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 10px 14px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, Menlo, monospace;
      font-size: 13px;
      color: #79c0ff;
      word-break: break-all;
    }
    .group { color: #e6edf3; font-weight: 600; }
    button {
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 8px 16px;
      margin: 0 8px 8px 0;
      font-size: 14px;
      cursor: pointer;
      background: #21262d;
      color: #c9d1d9;
    }
    button.primary { background: #1f6feb; border-color: #1f6feb; color: #fff; }
    button.move { background: #238636; border-color: #238636; color: #fff; }
    label { display: block; margin: 16px 0 0; font-size: 13px; color: #8b949e; cursor: pointer; }
    .error { color: #f85149; font-size: 13px; margin-top: 12px; display: none; }
  </style>
</head>
<body>
  <div class="card">
    <h1>This tab belongs to another group</h1>
    <p id="detail">The destination is assigned to group <span class="group" id="group"></span>.</p>
    <div class="dest" id="dest"></div>
    <button class="primary" id="proceed">Open here this time</button>
    <button class="move" id="move">Move tab to <span id="movegroup"></span></button>
    <button id="back">Go back</button>
    <label><input type="checkbox" id="neverask" /> Never ask again for this site</label>
    <div class="error" id="error"></div>
  </div>
  <script>
    var params = new URLSearchParams(location.search);
    var url = params.get("url") || "";
    var groupId = params.get("groupId") || "";
    var tabId = params.get("tabId") || "";

    document.getElementById("dest").textContent = url;
    document.getElementById("group").textContent = groupId;
    document.getElementById("movegroup").textContent = groupId;

    function fail(msg) {
      var el = document.getElementById("error");
      el.textContent = msg;
      el.style.display = "block";
    }

    async function applyNeverAsk() {
      if (!document.getElementById("neverask").checked) { return; }
      try {
        var hostname = new URL(url).hostname.toLowerCase();
        await fetch("/api/v1/settings/" + encodeURIComponent(hostname) + "/never-ask", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ value: true })
        });
      } catch (e) { /* unconfigured domains are skipped server-side anyway */ }
    }

    async function resolve(extra) {
      await applyNeverAsk();
      var body = Object.assign({
        tabId: tabId,
        redirectUrl: url,
        originalUrl: location.href
      }, extra);
      var resp = await fetch("/api/v1/confirm", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify(body)
      });
      if (!resp.ok) {
        var text = await resp.text();
        fail("Could not redirect: " + text);
      }
    }

    document.getElementById("proceed").addEventListener("click", function () {
      resolve({ exempt: true });
    });
    document.getElementById("move").addEventListener("click", function () {
      resolve({ exempt: false, groupId: groupId });
    });
    document.getElementById("back").addEventListener("click", function () {
      history.back();
    });
  </script>
</body>
</html>`

// dashboardHTML is the minimal management shell: live tab/group tables over
// the REST API plus a window channel for push updates.
const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Tab Fence</title>
  <style>
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      font-size: 14px;
      background: #0d1117;
      color: #c9d1d9;
    }
    header {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 16px;
    }
    header .brand { font-weight: 600; color: #e6edf3; }
    header .status { font-size: 12px; color: #8b949e; }
    header a { margin-left: auto; color: #58a6ff; font-size: 13px; text-decoration: none; }
    main { max-width: 1000px; margin: 0 auto; padding: 24px 16px 64px; }
    h2 { font-size: 16px; color: #e6edf3; margin: 32px 0 12px; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #21262d; }
    th { color: #8b949e; font-weight: 600; }
    td.url { font-family: Consolas, Menlo, monospace; font-size: 12px; color: #79c0ff; word-break: break-all; }
    .pill {
      background: #21262d;
      border: 1px solid #30363d;
      border-radius: 10px;
      padding: 1px 8px;
      font-size: 11px;
    }
    .muted { color: #484f58; }
  </style>
</head>
<body>
  <header>
    <span class="brand">Tab Fence</span>
    <span class="status" id="status">connecting…</span>
    <a href="/docs">API Docs</a>
  </header>
  <main>
    <h2>Groups</h2>
    <table><thead><tr><th>Group</th><th>Domains</th><th>Tabs</th></tr></thead><tbody id="groups"></tbody></table>

    <h2>Tabs</h2>
    <table><thead><tr><th>Tab</th><th>Window</th><th>Group</th><th>URL</th><th>Exemptions</th></tr></thead><tbody id="tabs"></tbody></table>

    <h2>Recent decisions</h2>
    <table><thead><tr><th>Time</th><th>Outcome</th><th>Reason</th><th>Domain</th></tr></thead><tbody id="decisions"></tbody></table>
  </main>
  <script>
    function cell(text, cls) {
      var td = document.createElement("td");
      if (cls) { td.className = cls; }
      td.textContent = text;
      return td;
    }

    function fill(id, rows) {
      var body = document.getElementById(id);
      body.textContent = "";
      rows.forEach(function (cells) {
        var tr = document.createElement("tr");
        cells.forEach(function (c) { tr.appendChild(c); });
        body.appendChild(tr);
      });
    }

    async function refresh() {
      var groups = (await (await fetch("/api/v1/groups")).json()).groups || [];
      fill("groups", groups.map(function (g) {
        return [cell(g.group), cell((g.domains || []).join(", ")), cell(String((g.tabs || []).length))];
      }));

      var tabs = (await (await fetch("/api/v1/tabs")).json()).tabs || [];
      fill("tabs", tabs.map(function (t) {
        return [
          cell(t.tab_id.slice(0, 8)),
          cell(String(t.window_id)),
          cell(t.group || "—", t.group ? "" : "muted"),
          cell(t.url || "", "url"),
          cell((t.exemptions || []).join(", "))
        ];
      }));

      var decisions = (await (await fetch("/api/v1/decisions?limit=20")).json()).decisions || [];
      fill("decisions", decisions.slice().reverse().map(function (d) {
        return [cell(d.timestamp), cell(d.outcome), cell(d.reason), cell(d.domain || "")];
      }));
      return tabs;
    }

    async function connect() {
      var tabs = await refresh();
      var me = tabs.find(function (t) { return t.url && t.url.indexOf("/ui") !== -1; });
      if (!me) {
        document.getElementById("status").textContent = "no channel (window unknown)";
        return;
      }
      var proto = location.protocol === "https:" ? "wss:" : "ws:";
      var ws = new WebSocket(proto + "//" + location.host + "/ws/ui?windowId=" + me.window_id);
      ws.onopen = function () { document.getElementById("status").textContent = "window " + me.window_id; };
      ws.onclose = function () { document.getElementById("status").textContent = "channel closed"; };
      ws.onmessage = function () { refresh(); };
    }

    connect();
    setInterval(refresh, 10000);
  </script>
</body>
</html>`
