package api

const relayDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>UI Channels — Tab Fence</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; }

    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
      display: flex;
      flex-direction: column;
      min-height: 100vh;
    }

    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }

    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
      flex-shrink: 0;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    nav .sep { color: #484f58; }
    nav .current { color: #e6edf3; font-weight: 500; }
    nav .back { font-size: 13px; }

    .layout {
      display: flex;
      flex: 1;
      max-width: 1100px;
      width: 100%;
      margin: 0 auto;
      padding: 0 16px;
    }

    aside {
      width: 220px;
      flex-shrink: 0;
      padding: 32px 16px 32px 0;
      position: sticky;
      top: 0;
      height: calc(100vh - 48px);
      overflow-y: auto;
    }
    aside h4 {
      margin: 0 0 8px;
      font-size: 11px;
      font-weight: 600;
      text-transform: uppercase;
      letter-spacing: .08em;
      color: #8b949e;
    }
    aside ul { list-style: none; margin: 0 0 24px; padding: 0; }
    aside ul li a {
      display: block;
      padding: 4px 8px;
      border-radius: 4px;
      font-size: 13px;
      color: #8b949e;
    }
    aside ul li a:hover { background: #21262d; color: #c9d1d9; text-decoration: none; }

    main {
      flex: 1;
      padding: 32px 0 64px 32px;
      border-left: 1px solid #21262d;
      min-width: 0;
    }

    h1 { margin: 0 0 8px; font-size: 28px; font-weight: 600; color: #e6edf3; }
    .subtitle { color: #8b949e; margin: 0 0 36px; font-size: 15px; }
    h2 {
      margin: 40px 0 12px;
      font-size: 18px;
      font-weight: 600;
      color: #e6edf3;
      padding-bottom: 8px;
      border-bottom: 1px solid #21262d;
    }
    h3 { margin: 28px 0 10px; font-size: 15px; font-weight: 600; color: #e6edf3; }
    p { margin: 0 0 12px; }

    .endpoint {
      display: inline-flex;
      align-items: center;
      gap: 10px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 10px 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 14px;
    }
    .method {
      background: #1f6feb;
      color: #fff;
      font-weight: 700;
      font-size: 11px;
      padding: 2px 7px;
      border-radius: 4px;
      letter-spacing: .04em;
    }
    .path { color: #e6edf3; }

    table {
      width: 100%;
      border-collapse: collapse;
      margin-bottom: 20px;
      font-size: 13px;
    }
    th, td {
      text-align: left;
      padding: 8px 12px;
      border-bottom: 1px solid #21262d;
      vertical-align: top;
    }
    th { color: #8b949e; font-weight: 600; }
    code {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 3px;
      padding: 1px 5px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 12px;
      color: #79c0ff;
    }
    pre {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      margin-bottom: 20px;
      overflow-x: auto;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 13px;
      line-height: 1.7;
    }
    pre code { background: none; border: none; padding: 0; color: #a5d6ff; }

    .callout {
      background: #161b22;
      border: 1px solid #30363d;
      border-left: 3px solid #d29922;
      border-radius: 6px;
      padding: 12px 16px;
      margin-bottom: 20px;
      font-size: 13px;
    }

    .msg-card {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px 20px;
      margin-bottom: 16px;
    }
    .msg-card h3 { margin-top: 0; }
    .dir {
      border-radius: 3px;
      padding: 1px 7px;
      font-size: 11px;
      font-weight: 600;
      margin-left: 8px;
      vertical-align: middle;
    }
    .dir.out { background: #1f6feb; color: #fff; }
    .dir.in { background: #238636; color: #fff; }
  </style>
</head>
<body>

<nav>
  <span class="brand">Tab Fence</span>
  <span class="sep">/</span>
  <span class="current">UI Channels</span>
  <a class="back" href="/docs">← REST API Docs</a>
</nav>

<div class="layout">

  <aside>
    <h4>On this page</h4>
    <ul>
      <li><a href="#overview">Overview</a></li>
      <li><a href="#endpoint">Endpoint</a></li>
      <li><a href="#envelope">Message Envelope</a></li>
      <li><a href="#outbound">Agent → UI</a></li>
      <li><a href="#inbound">UI → Agent</a></li>
      <li><a href="#examples">Examples</a></li>
      <li><a href="#notes">Notes</a></li>
    </ul>
  </aside>

  <main>
    <h1>UI Channels</h1>
    <p class="subtitle">Per-window WebSocket channel between the dashboard UI and the policy agent.</p>

    <h2 id="overview">Overview</h2>
    <p>
      Every browser window that opens the dashboard holds exactly one channel to the
      agent. The agent pushes group-move announcements to all connected windows and
      accepts a small set of control operations back: exemption invalidation, active
      group changes, never-ask toggles, and confirmation resolution.
    </p>
    <div class="callout">
      <strong>One channel per window.</strong> A new connection for a window that already
      has one replaces it; the old socket is closed by the agent.
    </div>

    <h2 id="endpoint">Endpoint</h2>
    <div class="endpoint">
      <span class="method">GET</span>
      <span class="path">/ws/ui?windowId={id}</span>
    </div>
    <p>
      <code>windowId</code> is required and must be the numeric browser window
      identifier as reported by <code>GET /api/v1/windows</code>. Requests without a
      parseable <code>windowId</code> are rejected with <code>400</code> before upgrade.
    </p>

    <h2 id="envelope">Message Envelope</h2>
    <p>Every frame in either direction is a single JSON object:</p>
    <table>
      <thead>
        <tr><th>Field</th><th>Type</th><th>Description</th></tr>
      </thead>
      <tbody>
        <tr><td><code>method</code></td><td>string</td><td>Operation selector. Always present.</td></tr>
        <tr><td><code>tabId</code></td><td>string</td><td>Target tab.</td></tr>
        <tr><td><code>windowId</code></td><td>number</td><td>Target window.</td></tr>
        <tr><td><code>groupId</code></td><td>string</td><td>Group identifier.</td></tr>
        <tr><td><code>hostname</code></td><td>string</td><td>Lowercase domain for settings operations.</td></tr>
        <tr><td><code>value</code></td><td>boolean</td><td>Flag argument (never-ask).</td></tr>
        <tr><td><code>redirectUrl</code></td><td>string</td><td>Destination the user approved.</td></tr>
        <tr><td><code>originalUrl</code></td><td>string</td><td>Confirmation page URL to drop from history.</td></tr>
        <tr><td><code>exempt</code></td><td>boolean</td><td>Grant a one-tab exemption before navigating.</td></tr>
      </tbody>
    </table>
    <p>Unset fields are omitted from the wire.</p>

    <h2 id="outbound">Agent → UI</h2>

    <div class="msg-card">
      <h3><code>connected</code><span class="dir out">PUSH</span></h3>
      <p>Sent once immediately after attach. Echoes the channel's <code>windowId</code>.</p>
    </div>

    <div class="msg-card">
      <h3><code>moveTabGroup</code><span class="dir out">PUSH</span></h3>
      <p>
        A tab was moved to a group — by confirmation resolution or by the REST move
        endpoint. Broadcast to every connected window so all dashboards stay
        current. Carries <code>tabId</code> and <code>groupId</code>.
      </p>
    </div>

    <h2 id="inbound">UI → Agent</h2>

    <div class="msg-card">
      <h3><code>invalidateExempt</code><span class="dir in">CONTROL</span></h3>
      <p>Drops every exemption held by <code>tabId</code>.</p>
    </div>

    <div class="msg-card">
      <h3><code>activeGroup</code><span class="dir in">CONTROL</span></h3>
      <p>Sets <code>windowId</code>'s active group to <code>groupId</code>. New tabs in the window inherit it.</p>
    </div>

    <div class="msg-card">
      <h3><code>neverAsk</code><span class="dir in">CONTROL</span></h3>
      <p>
        Sets the never-ask flag (<code>value</code>) on <code>hostname</code>. Domains
        without a settings record are silently left untouched.
      </p>
    </div>

    <div class="msg-card">
      <h3><code>redirectTab</code><span class="dir in">CONTROL</span></h3>
      <p>
        Resolves a confirmation: optionally grants an exemption
        (<code>exempt</code>), optionally moves the tab to <code>groupId</code>, navigates
        <code>tabId</code> to <code>redirectUrl</code>, then removes
        <code>originalUrl</code> from the tab's history.
      </p>
    </div>

    <h2 id="examples">Examples</h2>
    <pre><code>// connect (from a dashboard in window 42)
const ws = new WebSocket("ws://127.0.0.1:8199/ws/ui?windowId=42");

// first frame from the agent
{"method":"connected","windowId":42}

// approve a blocked navigation with exemption
ws.send(JSON.stringify({
  method: "redirectTab",
  tabId: "F2A1...",
  redirectUrl: "https://news.example/story",
  originalUrl: "http://127.0.0.1:8199/confirm.html?url=...",
  exempt: true
}));

// pushed to every window after the move
{"method":"moveTabGroup","tabId":"F2A1...","groupId":"fun"}</code></pre>

    <h2 id="notes">Notes</h2>
    <ul>
      <li>Frames that fail to decode are logged and skipped; the channel stays open.</li>
      <li>Frames to a stalled channel are dropped rather than blocking the broadcast path.</li>
      <li>Closing a window detaches its channel; state for the window is cleared.</li>
    </ul>
  </main>

</div>

</body>
</html>`
