package portal

// Page scripts. Each is a function expression passed to browser.Driver.Eval;
// Selector arguments are resolved with __resolve / __resolveAll.

// StudentActiveJS reports whether a visible label (argument 0) shows the
// student outside of any menu or collapsed container.
const StudentActiveJS = `function(sel) {
	var nodes = __resolveAll(sel);
	for (var i = 0; i < nodes.length; i++) {
		var el = nodes[i];
		if (!el.getClientRects().length) { continue; }
		var parent = el.parentElement;
		if (!parent) { return true; }
		var cls = (parent.getAttribute('class') || '').toLowerCase();
		var role = (parent.getAttribute('role') || '').toLowerCase();
		if (cls.indexOf('hidden') >= 0 || cls.indexOf('collapse') >= 0 || cls.indexOf('dropdown') >= 0) { continue; }
		if (role.indexOf('menu') < 0) { return true; }
	}
	return false;
}`

// CheckboxJS locates a checkbox (argument 0, with optional inner CSS in
// argument 1) and applies action (argument 2): "state" only reads,
// "click" clicks the checkbox, "input" clicks its native input, and "force"
// sets checked and dispatches change. Returns {found, checked}.
const CheckboxJS = `function(sel, inner, action) {
	var el = __resolve(sel);
	if (!el) { return { found: false, checked: false }; }
	var box = el;
	if (inner) {
		var b = el.querySelector(inner);
		if (b) { box = b; }
	}
	var input = box.tagName === 'INPUT' ? box : box.querySelector('input[type="checkbox"]');
	var isChecked = function() {
		if (box.classList && box.classList.contains('Mui-checked')) { return true; }
		return !!(input && input.checked);
	};
	if (action === 'click') {
		box.scrollIntoView({ block: 'center' });
		box.click();
	} else if (action === 'input' && input) {
		input.click();
	} else if (action === 'force' && input) {
		input.checked = true;
		input.dispatchEvent(new Event('change', { bubbles: true }));
	}
	return { found: true, checked: isChecked() };
}`

// DataTestValuesJS lists the data-test values on the page for failure logs
const DataTestValuesJS = `function(sel) {
	return __resolveAll(sel).map(function(el) { return el.getAttribute('data-test') || ''; })
		.filter(function(v) { return v.length > 0; }).slice(0, 100);
}`

// FireInputEventsJS dispatches input and change on the element so reactive
// search boxes run their query.
const FireInputEventsJS = `function(sel) {
	var el = __resolve(sel);
	if (!el) { return false; }
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// TextsJS returns the trimmed text of every element matching argument 0
const TextsJS = `function(sel) {
	return __resolveAll(sel).map(function(el) { return (el.textContent || '').trim(); });
}`

// VendorPayJS clicks the Pay button belonging to the vendor row at index
// (argument 1) of the result labels (argument 0). When the row has no button
// of its own and there is exactly one result, the first Pay button on the
// page is used.
const VendorPayJS = `function(sel, index) {
	var labels = __resolveAll(sel);
	if (index < 0 || index >= labels.length) { return false; }
	var isPay = function(b) { return (b.textContent || '').trim().toUpperCase().indexOf('PAY') >= 0; };
	var button = null;
	for (var node = labels[index].parentElement; node; node = node.parentElement) {
		var owned = labels.filter(function(l) { return node.contains(l); }).length;
		if (owned > 1) { break; }
		var candidates = Array.prototype.filter.call(node.querySelectorAll('button'), isPay);
		if (candidates.length) { button = candidates[0]; break; }
	}
	if (!button && labels.length === 1) {
		button = Array.prototype.find.call(document.querySelectorAll('button'), isPay) || null;
	}
	if (!button) { return false; }
	button.scrollIntoView({ block: 'center' });
	button.click();
	return true;
}`

// ConfirmationJS collects the texts that decide whether a submission went
// through. Arguments are the success, confirmation, and error CSS lists.
const ConfirmationJS = `function(successSel, confirmSel, errorSel) {
	var texts = function(q) {
		return Array.prototype.map.call(document.querySelectorAll(q), function(el) {
			return (el.textContent || '').trim();
		}).filter(function(t) { return t.length > 0; });
	};
	return {
		url: window.location.href,
		success: texts(successSel),
		confirmation: texts(confirmSel),
		errors: texts(errorSel)
	};
}`
