package users

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username string `gorm:"unique"`
	Password string
}

func Create(db *gorm.DB, username, password string) error {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := User{Username: username, Password: string(hashedPassword)}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	return nil
}

// CheckPassword returns the user ID when username/password match a record.
func CheckPassword(db *gorm.DB, username, password string) (uint, bool) {
	var user User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return 0, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return 0, false
	}
	return user.ID, true
}
