// Package admin implements the admin console WebSocket endpoint: the textual
// wire protocol, per-connection authentication state, and the notification
// hub that fans registry lifecycle events out to subscribed connections.
//
// # Wire protocol
//
// Every command and every reply or push is one UTF-8 text frame, tokenized on
// whitespace with empty tokens discarded. A connection starts Unauthenticated
// and becomes Authenticated by presenting the current admin token:
//
//	auth jwt=<token>
//
// Any other command while Unauthenticated draws a NotAuthenticated reply; a
// bad or malformed token draws InvalidAuthToken and the connection may retry.
//
// Authenticated connections can issue:
//
//	subscribe <topic>...      start receiving pushes for the named topics
//	unsubscribe <topic>...    stop receiving them
//	active_docs_count         replied with "active_docs_count <N>"
//	active_users_count        replied with "active_users_count <N>"
//	documents                 replied with one frame listing live sessions
//	total_mem                 replied with "total_mem <KB>"
//	mem_stats                 replied with "mem_stats <totalKB> <usedKB> <freeKB>"
//	cpu_stats                 replied with "cpu_stats <percent>"
//	kill <pid>                force-disconnect the given worker
//
// Pushes are sent only to connections subscribed to the matching topic:
//
//	adddoc <pid> <docname> <viewID> <memKB>
//	rmdoc <pid> <viewID> <docname>
//
// Unknown keywords and frames with the wrong token count are logged and
// ignored; they never terminate the connection.
package admin
