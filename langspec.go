// Package langspec indexes programming-language specification documents.
// It fetches specification sources (single HTML pages, multi-page HTML
// tables of contents and markdown trees hosted on GitHub), splits them into
// heading-addressable sections, stores them with change detection and
// serves them through full-text search with citations.
//
// This package contains domain types, interfaces and dependency-free
// algorithms following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., sqlite/, goquery/, github/).
package langspec
