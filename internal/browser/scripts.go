package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// resolverJS is prepended to every Eval call
const resolverJS = `
function __resolveAll(sel) {
	if (!sel) { return []; }
	if (sel.kind === "xpath") {
		var snap = document.evaluate(sel.query, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		var out = [];
		for (var i = 0; i < snap.snapshotLength; i++) { out.push(snap.snapshotItem(i)); }
		return out;
	}
	return Array.prototype.slice.call(document.querySelectorAll(sel.query));
}
function __resolve(sel) {
	var all = __resolveAll(sel);
	return all.length ? all[0] : null;
}
`

const diagnosticsJS = `function() {
	var alerts = [];
	document.querySelectorAll('[role="alert"], .alert, .error, .warning').forEach(function(el) {
		var t = (el.innerText || '').trim();
		if (t) { alerts.push(t.substring(0, 300)); }
	});
	return { readyState: document.readyState, alerts: alerts.slice(0, 10) };
}`

// buildScript wraps fn so it is invoked with args as JSON literals
func buildScript(fn string, args ...interface{}) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument %d: %w", i, err)
		}
		encoded[i] = string(b)
	}

	var sb strings.Builder
	sb.WriteString("(function() {")
	sb.WriteString(resolverJS)
	sb.WriteString("return (")
	sb.WriteString(fn)
	sb.WriteString(")(")
	sb.WriteString(strings.Join(encoded, ", "))
	sb.WriteString(");})()")
	return sb.String(), nil
}
