package user

// ToDTO maps a stored user to its outward representation. The password hash
// never crosses this boundary.
func ToDTO(u User) DTO {
	return DTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Status:    u.Status,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToDTOs(users []User) []DTO {
	out := make([]DTO, 0, len(users))

	for _, u := range users {
		out = append(out, ToDTO(u))
	}

	return out
}

// Apply overwrites the mutable fields of u with the DTO values. The password
// hash is supplied by the caller since hashing lives outside the domain.
func Apply(u *User, dto DTO, passwordHash string) {
	u.Name = dto.Name
	u.Email = dto.Email
	u.Status = dto.Status
	u.Role = dto.Role
	u.PasswordHash = passwordHash
}
