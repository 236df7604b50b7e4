// Package models defines the JSON payloads exchanged with the RAG API.
package models
