// Package services implements the driving port interfaces.
// Services contain the core business logic: the RAG query pipeline,
// the ingestion pipeline and the document upload/delete paths. They
// orchestrate calls to driven ports and hold no infrastructure code.
package services
