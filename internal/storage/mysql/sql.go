package mysql

const insertDocumentSQL = `
INSERT INTO documents (collection, id, fields)
VALUES (?, ?, ?)
`

const getDocumentSQL = `
SELECT id, fields, created_at
FROM documents
WHERE collection = ? AND id = ?
`

// Partial update: JSON_MERGE_PATCH keeps every field the patch does not name.
const updateDocumentSQL = `
UPDATE documents
SET fields = JSON_MERGE_PATCH(fields, ?)
WHERE collection = ? AND id = ?
`

const deleteDocumentSQL = `
DELETE FROM documents
WHERE collection = ? AND id = ?
`

const listDocumentsPrefix = `
SELECT id, fields, created_at
FROM documents
WHERE collection = ?`
