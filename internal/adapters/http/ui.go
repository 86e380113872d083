package http

// uiHTML is the embedded single-page chat frontend. It talks to the
// session API with plain fetch calls; one driver step per user action.
const uiHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Fathom - Deep Research</title>
<style>
  :root { --accent: #38bdf8; --bg: #0f172a; --panel: #1e293b; --text: #e2e8f0; }
  * { box-sizing: border-box; }
  body { margin: 0; font-family: system-ui, sans-serif; background: var(--bg); color: var(--text); display: flex; min-height: 100vh; }
  #sidebar { width: 260px; background: var(--panel); padding: 1.25rem; flex-shrink: 0; }
  #sidebar h2 { font-size: 1rem; margin-top: 0; color: var(--accent); }
  #sidebar label { display: block; font-size: .8rem; margin: .75rem 0 .25rem; color: #94a3b8; }
  #sidebar input { width: 100%; padding: .4rem; border-radius: .3rem; border: 1px solid #334155; background: var(--bg); color: var(--text); }
  #main { flex: 1; display: flex; flex-direction: column; max-width: 900px; margin: 0 auto; padding: 1.5rem; }
  h1 { text-align: center; color: var(--accent); font-size: 1.6rem; }
  #chat { flex: 1; overflow-y: auto; padding: .5rem 0; }
  .bubble { max-width: 80%; padding: .6rem .9rem; border-radius: .7rem; margin: .4rem 0; white-space: pre-wrap; }
  .bubble-user { background: var(--accent); color: #082f49; margin-left: auto; }
  .bubble-assistant { background: var(--panel); }
  #clarify-panel { background: #422006; border: 1px solid #f59e0b; border-radius: .5rem; padding: 1rem; margin: .75rem 0; }
  #clarify-panel h3 { margin-top: 0; color: #fbbf24; }
  #error-panel { background: #450a0a; border: 1px solid #ef4444; border-radius: .5rem; padding: 1rem; margin: .75rem 0; }
  #report-panel { background: var(--panel); border-radius: .5rem; padding: 1.25rem; margin: .75rem 0; }
  .input-row { display: flex; gap: .5rem; margin-top: .75rem; }
  .input-row input { flex: 1; padding: .6rem; border-radius: .4rem; border: 1px solid #334155; background: var(--panel); color: var(--text); }
  button { padding: .55rem 1rem; border: 0; border-radius: .4rem; background: var(--accent); color: #082f49; font-weight: 600; cursor: pointer; }
  button.secondary { background: #475569; color: var(--text); }
  button:disabled { opacity: .5; cursor: wait; }
  .hidden { display: none; }
  #status { text-align: center; color: #94a3b8; font-size: .85rem; min-height: 1.2rem; }
</style>
</head>
<body>
<div id="sidebar">
  <h2>Configuration</h2>
  <label for="thread-id">Thread ID</label>
  <input id="thread-id" value="1" />
  <label for="budget">Iteration budget (10&ndash;100)</label>
  <input id="budget" type="number" min="10" max="100" value="50" />
  <p><button class="secondary" id="reset-btn">Reset session</button></p>
</div>
<div id="main">
  <h1>Fathom Deep Research</h1>
  <div id="status"></div>
  <div id="chat"></div>
  <div id="error-panel" class="hidden"></div>
  <div id="clarify-panel" class="hidden">
    <h3>Clarification needed</h3>
    <p id="clarify-question"></p>
    <div class="input-row">
      <input id="clarify-input" placeholder="Provide your clarification here..." />
      <button id="clarify-submit">Submit</button>
      <button class="secondary" id="clarify-cancel">Cancel</button>
    </div>
  </div>
  <div id="report-panel" class="hidden">
    <h3>Final research report</h3>
    <div id="report-body"></div>
    <p><a id="download-link"><button>Download report</button></a></p>
  </div>
  <div class="input-row" id="query-row">
    <input id="user-input" placeholder="Enter your research query here..." />
    <button id="send-btn">Research</button>
  </div>
</div>
<script>
let sessionId = null;

async function api(path, body) {
  const res = await fetch(path, {
    method: body === undefined ? "GET" : "POST",
    headers: { "Content-Type": "application/json" },
    body: body === undefined ? undefined : JSON.stringify(body),
  });
  if (!res.ok) throw new Error(await res.text());
  return res.json();
}

async function ensureSession() {
  if (sessionId) return;
  const state = await api("/api/sessions/", {
    thread_id: document.getElementById("thread-id").value,
    iteration_budget: parseInt(document.getElementById("budget").value, 10) || 50,
  });
  sessionId = state.id;
  render(state);
}

function render(state) {
  const chat = document.getElementById("chat");
  chat.innerHTML = "";
  for (const msg of state.messages || []) {
    const div = document.createElement("div");
    div.className = "bubble bubble-" + msg.role;
    div.textContent = msg.content;
    chat.appendChild(div);
  }
  chat.scrollTop = chat.scrollHeight;

  const awaiting = state.phase === "awaiting_clarification";
  document.getElementById("clarify-panel").classList.toggle("hidden", !awaiting);
  if (awaiting) document.getElementById("clarify-question").textContent = state.question;
  document.getElementById("query-row").classList.toggle("hidden", awaiting);

  const errPanel = document.getElementById("error-panel");
  errPanel.classList.toggle("hidden", !state.error);
  if (state.error) {
    errPanel.textContent = "Error: " + state.error +
      "; check your engine credentials and quota, then start a new query.";
  }

  const hasReport = !!state.report;
  document.getElementById("report-panel").classList.toggle("hidden", !hasReport);
  if (hasReport) {
    document.getElementById("report-body").textContent = state.report;
    document.getElementById("download-link").href = "/api/sessions/" + sessionId + "/report";
  }

  document.getElementById("status").textContent =
    state.phase === "aborted" ? "Maximum clarification rounds reached; showing current results." : "";
}

async function withBusy(btn, fn) {
  btn.disabled = true;
  document.getElementById("status").textContent = "Conducting research... this may take several minutes.";
  try {
    render(await fn());
  } catch (err) {
    document.getElementById("status").textContent = "";
    const panel = document.getElementById("error-panel");
    panel.classList.remove("hidden");
    panel.textContent = err.message;
  } finally {
    btn.disabled = false;
  }
}

document.getElementById("send-btn").addEventListener("click", async () => {
  const input = document.getElementById("user-input");
  const query = input.value.trim();
  if (!query) return;
  await ensureSession();
  input.value = "";
  await withBusy(document.getElementById("send-btn"),
    () => api("/api/sessions/" + sessionId + "/query", { query }));
});

document.getElementById("clarify-submit").addEventListener("click", async () => {
  const input = document.getElementById("clarify-input");
  const answer = input.value.trim();
  input.value = "";
  await withBusy(document.getElementById("clarify-submit"),
    () => api("/api/sessions/" + sessionId + "/clarify", { answer }));
});

document.getElementById("clarify-cancel").addEventListener("click", async () => {
  render(await api("/api/sessions/" + sessionId + "/cancel", {}));
});

document.getElementById("reset-btn").addEventListener("click", async () => {
  if (!sessionId) return;
  render(await api("/api/sessions/" + sessionId + "/reset", {}));
});

document.getElementById("user-input").addEventListener("keydown", (e) => {
  if (e.key === "Enter") document.getElementById("send-btn").click();
});
document.getElementById("clarify-input").addEventListener("keydown", (e) => {
  if (e.key === "Enter") document.getElementById("clarify-submit").click();
});
</script>
</body>
</html>
`
