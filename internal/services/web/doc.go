// Package web serves the course landing page and the question-answering
// HTTP API.
//
// Routes:
//
//	GET  /                      landing page
//	GET  /api                   API greeting
//	POST /api/query             retrieval-augmented answer
//	POST /api/documents         index a document
//	GET  /api/documents/count   number of indexed documents
//	GET  /healthz               liveness
package web
