package simplesocial

import (
	"fmt"
	"reflect"
)

// Documents come back from different backends with different dynamic types:
// the memory store hands back what was stored, JSON backends produce []any and
// float64, and the Mongo driver produces its own array type. The helpers below
// normalize them.

func stringField(f Fields, name string) string {
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func stringSliceField(f Fields, name string) []string {
	return stringSlice(f[name])
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case nil:
		return []string{}
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case string:
		// single relationship values are occasionally stored unwrapped
		return []string{s}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{}
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if str, ok := item.(string); ok {
			out = append(out, str)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}

func postFromDocument(doc *Document) *Post {
	return &Post{
		ID:        doc.ID,
		CreatorID: stringField(doc.Fields, PostFieldCreator),
		Caption:   stringField(doc.Fields, PostFieldCaption),
		ImageURL:  stringField(doc.Fields, PostFieldImageURL),
		ImageID:   stringField(doc.Fields, PostFieldImageID),
		Location:  stringField(doc.Fields, PostFieldLocation),
		Tags:      stringSliceField(doc.Fields, PostFieldTags),
		Likes:     stringSliceField(doc.Fields, PostFieldLikes),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func postsFromDocuments(docs []*Document) []*Post {
	posts := make([]*Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, postFromDocument(doc))
	}
	return posts
}

func userFromDocument(doc *Document) *UserProfile {
	return &UserProfile{
		ID:        doc.ID,
		AccountID: stringField(doc.Fields, UserFieldAccountID),
		Name:      stringField(doc.Fields, UserFieldName),
		Username:  stringField(doc.Fields, UserFieldUsername),
		Email:     stringField(doc.Fields, UserFieldEmail),
		ImageURL:  stringField(doc.Fields, UserFieldImageURL),
		Bio:       stringField(doc.Fields, UserFieldBio),
		PostIDs:   stringSliceField(doc.Fields, UserFieldPosts),
		CreatedAt: doc.CreatedAt,
	}
}

func savedPostFromDocument(doc *Document) *SavedPostRecord {
	return &SavedPostRecord{
		ID:        doc.ID,
		UserID:    stringField(doc.Fields, SaveFieldUser),
		PostID:    stringField(doc.Fields, SaveFieldPost),
		CreatedAt: doc.CreatedAt,
	}
}
