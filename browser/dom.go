package browser

// domSummaryScript condenses the current page into a short text inventory
// the model can act on: title, headings, interactive elements with their
// selectors, and visible text snippets. Returned as a single string.
const domSummaryScript = `(() => {
  const lines = [];
  lines.push("TITLE: " + document.title);
  lines.push("URL: " + location.href);

  const headings = document.querySelectorAll("h1, h2, h3");
  if (headings.length) {
    lines.push("HEADINGS:");
    let n = 0;
    for (const h of headings) {
      const text = h.innerText.trim().replace(/\s+/g, " ");
      if (!text) continue;
      lines.push("  " + h.tagName.toLowerCase() + ": " + text.slice(0, 120));
      if (++n >= 15) break;
    }
  }

  const describe = (el) => {
    let sel = el.tagName.toLowerCase();
    if (el.id) sel += "#" + el.id;
    else if (el.name) sel += "[name=\"" + el.name + "\"]";
    else if (el.className && typeof el.className === "string") {
      const cls = el.className.trim().split(/\s+/)[0];
      if (cls) sel += "." + cls;
    }
    return sel;
  };

  const links = [];
  for (const a of document.querySelectorAll("a[href]")) {
    const text = a.innerText.trim().replace(/\s+/g, " ");
    if (!text) continue;
    links.push("  \"" + text.slice(0, 80) + "\" -> " + a.getAttribute("href").slice(0, 120));
    if (links.length >= 40) break;
  }
  if (links.length) {
    lines.push("LINKS:");
    lines.push(...links);
  }

  const controls = [];
  for (const el of document.querySelectorAll("button, input, select, textarea")) {
    if (el.type === "hidden") continue;
    const label = (el.innerText || el.value || el.placeholder || el.getAttribute("aria-label") || "").trim().replace(/\s+/g, " ");
    controls.push("  " + describe(el) + (el.type ? " type=" + el.type : "") + (label ? " \"" + label.slice(0, 60) + "\"" : ""));
    if (controls.length >= 30) break;
  }
  if (controls.length) {
    lines.push("CONTROLS:");
    lines.push(...controls);
  }

  const body = document.body ? document.body.innerText.trim().replace(/\s+/g, " ") : "";
  if (body) {
    lines.push("TEXT: " + body.slice(0, 1500));
  }
  return lines.join("\n");
})()`

// clickByTextScript clicks the first clickable element whose visible text
// contains the given string. Returns true when an element was clicked.
const clickByTextScript = `((needle) => {
  const lower = needle.toLowerCase();
  const candidates = document.querySelectorAll("a, button, input[type=submit], input[type=button], [role=button], [onclick]");
  for (const el of candidates) {
    const text = (el.innerText || el.value || "").trim().toLowerCase();
    if (text && text.includes(lower)) {
      el.scrollIntoView({block: "center"});
      el.click();
      return true;
    }
  }
  return false;
})`
