// Package domain defines the course MCP tools and their handlers.
package domain
