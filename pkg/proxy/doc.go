// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxy exposes the dependents tools to an agent gateway. It accepts
// Lambda-style invocations whose tool name travels in the client context,
// serves the tool catalog, and offers the same tools over a streamable MCP
// endpoint. Every call is resolved and executed by the tool router and
// answered with the router's {statusCode, body} envelope.
package proxy
