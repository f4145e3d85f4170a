package model

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&User{},
		&Animator{},
		&AnimatorRelation{},
		&Clip{},
		&Attribution{},
		&Favorite{},
		&AnimatorFavorite{},
		&Vote{},
		&Comment{},
		&Collection{},
		&CollectionClip{},
	}
}
