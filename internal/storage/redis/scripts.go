package redis

const (
	// writeDocumentScript atomically replaces the document and bumps its revision
	writeDocumentScript = `
local doc_key = KEYS[1]     -- pesonet:state
local meta_key = KEYS[2]    -- pesonet:state:meta

local document = ARGV[1]
local saved_at = ARGV[2]

redis.call('SET', doc_key, document)
local revision = redis.call('HINCRBY', meta_key, 'revision', 1)
redis.call('HSET', meta_key, 'saved_at', saved_at, 'size', string.len(document))

return revision
`
)
