// Package simplesocial provides the back end of a small social application:
// posts, likes, saved posts and user profiles, with media kept in a pluggable
// blob store and records kept in a pluggable document store.
//
// It exposes a single Service interface. Its central operation, CreatePost,
// uploads the media, derives a display URL, creates the post document and
// appends the post id to the creator's profile. When a step after the upload
// fails, the uploaded asset is deleted before the error is returned, so a post
// never references a missing asset. Failing to update the creator's profile is
// logged and counted but does not fail the call.
//
// Document stores (memory, Badger, PostgreSQL, MongoDB) live under docstore,
// blob stores (memory, filesystem, S3, Cloudinary) under blob, and display URL
// strategies under preview. Reads can be served from a tag-invalidated cache
// (see querycache).
//
// Persisted Field Names
//
// Documents are stored with the field names of the existing data: posts carry
// creator, caption, imageUrl, imageId, location, tags and likes; users carry
// accountId, name, username, email, imageUrl, bio and posts; saves carry user
// and posts. Server-assigned metadata uses $id, $createdAt and $updatedAt.
package simplesocial
