// Package service hosts the course MCP server over stdio.
package service
