package server

// DashboardHTML is the embedded single-page dashboard for macrokit.
// It drives the control API and follows the websocket stream.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>macrokit</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .status-bar {
    display: flex; gap: 20px; margin-bottom: 20px; padding: 12px 16px;
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
  }
  .status-item { display: flex; flex-direction: column; }
  .status-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  .status-value { font-size: 1.1em; font-weight: 600; }
  .status-value.connected { color: #3fb950; }
  .status-value.disconnected { color: #f85149; }
  .controls { display: flex; gap: 8px; margin-bottom: 20px; flex-wrap: wrap; }
  button {
    background: #21262d; color: #c9d1d9; border: 1px solid #30363d;
    padding: 6px 14px; border-radius: 4px; cursor: pointer; font-size: 0.85em;
  }
  button:hover { background: #30363d; }
  button:disabled { opacity: 0.4; cursor: default; }
  input[type=text] {
    background: #0d1117; color: #c9d1d9; border: 1px solid #30363d;
    padding: 6px 10px; border-radius: 4px;
  }
  .panel {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    margin-bottom: 20px; max-height: 400px; overflow-y: auto;
  }
  .panel-header {
    padding: 12px 16px; border-bottom: 1px solid #30363d;
    font-weight: 600; color: #58a6ff; position: sticky; top: 0;
    background: #161b22; display: flex; justify-content: space-between;
  }
  .row {
    display: grid; grid-template-columns: 1fr 100px 200px 220px;
    padding: 8px 16px; border-bottom: 1px solid #21262d;
    font-size: 0.85em; align-items: center;
  }
  .event-row {
    display: grid; grid-template-columns: 140px 140px 1fr;
    padding: 6px 16px; border-bottom: 1px solid #21262d; font-size: 0.85em;
    animation: fadeIn 0.3s ease;
  }
  .notice { color: #d29922; padding: 0 0 16px; min-height: 1.4em; }
  .error { color: #f85149; }
  .empty-state { text-align: center; padding: 40px 20px; color: #8b949e; }
  @keyframes fadeIn { from { opacity: 0; } to { opacity: 1; } }
</style>
</head>
<body>
<h1>macrokit</h1>
<p class="subtitle">Record and replay keyboard and pointer input</p>

<div class="status-bar">
  <div class="status-item">
    <span class="status-label">Connection</span>
    <span class="status-value disconnected" id="conn-status">Disconnected</span>
  </div>
  <div class="status-item">
    <span class="status-label">Session</span>
    <span class="status-value" id="mode">idle</span>
  </div>
  <div class="status-item">
    <span class="status-label">Events</span>
    <span class="status-value" id="count">0</span>
  </div>
</div>

<div class="controls">
  <input type="text" id="save-name" placeholder="record.json">
  <button id="rec-btn" onclick="post('/api/capture/start', {name: val('save-name')})">Record</button>
  <button id="stop-rec-btn" onclick="post('/api/capture/stop')">Stop recording</button>
  <button id="stop-btn" onclick="post('/api/replay/stop')">Stop replay</button>
  <button id="stop-loop-btn" onclick="post('/api/replay/stop-loop')">Finish loop</button>
</div>
<div class="notice" id="notice"></div>

<div class="panel">
  <div class="panel-header"><span>Recordings</span><button onclick="loadRecordings()">Refresh</button></div>
  <div id="recordings"><div class="empty-state">No recordings yet</div></div>
</div>

<div class="panel">
  <div class="panel-header"><span>Live Events</span><button onclick="clearEvents()">Clear</button></div>
  <div id="events"><div class="empty-state">Waiting for input...</div></div>
</div>

<script>
const eventsDiv = document.getElementById('events');
const MAX_EVENTS = 200;
let count = 0;

function val(id) { return document.getElementById(id).value.trim(); }

async function post(path, body) {
  const res = await fetch(path, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body || {})});
  if (!res.ok) {
    const e = await res.json().catch(() => ({error: res.statusText}));
    showNotice(e.error, true);
  }
}

async function loadRecordings() {
  const res = await fetch('/api/recordings');
  const list = await res.json();
  const div = document.getElementById('recordings');
  if (!list.length) {
    div.innerHTML = '<div class="empty-state">No recordings yet</div>';
    return;
  }
  div.innerHTML = '';
  for (const r of list) {
    const row = document.createElement('div');
    row.className = 'row';
    const name = escHtml(r.name);
    row.innerHTML =
      '<span>' + name + '</span>' +
      '<span>' + r.size + ' B</span>' +
      '<span>' + new Date(r.modified).toLocaleString() + '</span>' +
      '<span></span>';
    const actions = row.lastChild;
    actions.appendChild(button('Play', () => post('/api/replay/start', {name: r.name})));
    actions.appendChild(button('Loop', () => post('/api/replay/start', {name: r.name, loop: true})));
    actions.appendChild(button('Delete', async () => {
      await fetch('/api/recordings/' + encodeURIComponent(r.name), {method: 'DELETE'});
      loadRecordings();
    }));
    div.appendChild(row);
  }
}

function button(label, fn) {
  const b = document.createElement('button');
  b.textContent = label;
  b.onclick = fn;
  return b;
}

function setState(s) {
  document.getElementById('mode').textContent = s.mode + (s.looping ? ' (loop)' : '');
  const idle = s.mode === 'idle';
  document.getElementById('rec-btn').disabled = !idle;
  document.getElementById('stop-rec-btn').disabled = s.mode !== 'capturing';
  document.getElementById('stop-btn').disabled = s.mode !== 'replaying';
  document.getElementById('stop-loop-btn').disabled = !s.looping;
  if (idle) showNotice('');
}

function showNotice(text, isError) {
  const n = document.getElementById('notice');
  n.textContent = text || '';
  n.className = isError ? 'notice error' : 'notice';
}

function addEvent(kind, e) {
  const empty = eventsDiv.querySelector('.empty-state');
  if (empty) empty.remove();
  count++;
  document.getElementById('count').textContent = count;

  const row = document.createElement('div');
  row.className = 'event-row';
  const detail = e.key || e.button || (e.x !== undefined ? '(' + e.x + ', ' + e.y + ')' : '');
  row.innerHTML =
    '<span>' + kind + '</span>' +
    '<span>' + escHtml(e.action) + '</span>' +
    '<span>' + escHtml(String(detail)) + '</span>';
  eventsDiv.insertBefore(row, eventsDiv.firstChild);
  while (eventsDiv.children.length > MAX_EVENTS) {
    eventsDiv.removeChild(eventsDiv.lastChild);
  }
}

function clearEvents() {
  count = 0;
  document.getElementById('count').textContent = 0;
  eventsDiv.innerHTML = '<div class="empty-state">Waiting for input...</div>';
}

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');

  ws.onopen = () => {
    document.getElementById('conn-status').textContent = 'Connected';
    document.getElementById('conn-status').className = 'status-value connected';
    fetch('/api/state').then(r => r.json()).then(setState);
    loadRecordings();
  };

  ws.onclose = () => {
    document.getElementById('conn-status').textContent = 'Disconnected';
    document.getElementById('conn-status').className = 'status-value disconnected';
    setTimeout(connect, 2000);
  };

  ws.onmessage = (m) => {
    const msg = JSON.parse(m.data);
    switch (msg.kind) {
    case 'state': setState(msg.data); break;
    case 'event': addEvent('recorded', msg.data); break;
    case 'result': addEvent(msg.data.filtered ? 'skipped' : 'replayed', msg.data.event); break;
    case 'notice': showNotice(msg.data); break;
    case 'error': showNotice(msg.data, true); break;
    case 'recordings': loadRecordings(); break;
    case 'outcome': if (msg.data.error) showNotice(msg.data.error, true); break;
    }
  };
}

function escHtml(s) {
  const d = document.createElement('div');
  d.textContent = s;
  return d.innerHTML;
}

connect();
</script>
</body>
</html>`
