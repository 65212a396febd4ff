// Package server mirrors browser pages over WebSocket and runs a lazyload
// engine per connection.
//
// The client reports layout (viewport, element boxes, display state and
// data-bind declarations) and every scroll or resize. The server keeps a
// dom.Document mirror per session, binds each element that declares a
// lazyload entry and streams back attribute patches and load events:
//
//	client → {"type":"mount","viewport":{"width":1280,"height":800},"elements":[...]}
//	server ← {"type":"patch","hid":"h3","name":"src","value":"hero.png"}
//	server ← {"type":"event","hid":"h3","id":"hero","name":"load"}
//
// Handler returns a chi router serving /ws, /healthz and the Prometheus
// endpoint.
package server
