// Package branding holds the course name and copy shared by every surface.
package branding

import "fmt"

// AppName is the public course name.
const AppName = "LLM-RAG Online Course"

// Tagline is the welcome sentence shown under the course title.
const Tagline = "Welcome to the Large Language Models and Retrieval-Augmented Generation course."

// APIWelcome is the plain-text greeting returned by the API root.
const APIWelcome = "Welcome to the LLM-RAG Online Course API"

// CopyrightYear is fixed; the footer does not track the current date.
const CopyrightYear = 2023

// Copyright returns the footer notice.
func Copyright() string {
	return fmt.Sprintf("© %d %s. All rights reserved.", CopyrightYear, AppName)
}
