package user

import "puttPracticeAPI/internal/stats"

type CreateUserRequest struct {
	ClerkID     string `json:"clerkId" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=40"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// ProfileResponse is the public profile view: identity, stats and whether
// the viewer is already friends with the profile owner.
type ProfileResponse struct {
	User     *User            `json:"user"`
	Stats    *stats.UserStats `json:"stats"`
	IsFriend bool             `json:"is_friend"`
}

type UpdateProfileRequest struct {
	DisplayName         string         `json:"displayName,omitempty"`
	ImageURL            string         `json:"imageUrl,omitempty"`
	Gender              *Gender        `json:"gender,omitempty"`
	Birthday            *string        `json:"birthday,omitempty"`
	FavoriteDiscs       *FavoriteDiscs `json:"favoriteDiscs,omitempty"`
	Goals               *Goals         `json:"goals,omitempty"`
	HideFromLeaderboard *bool          `json:"hideFromLeaderboard,omitempty"`
	OptOutSharedLogging *bool          `json:"optOutSharedLogging,omitempty"`
}
