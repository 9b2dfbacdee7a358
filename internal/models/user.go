package models

type User struct {
	ID           string `bson:"_id,omitempty" json:"_id,omitempty"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"passwordHash" json:"-"`
	Name         string `bson:"name" json:"name"`
	Role         string `bson:"role" json:"role"`
	ProjectID    string `bson:"projectId,omitempty" json:"projectId,omitempty"`
	CreatedAt    string `bson:"createdAt" json:"createdAt"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ProjectID string `json:"projectId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		ProjectID: u.ProjectID,
		CreatedAt: u.CreatedAt,
	}
}
