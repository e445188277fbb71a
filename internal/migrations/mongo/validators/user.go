package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"username", "password_hash", "role", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "objectId"},
			"username": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 50,
				"pattern":   "^[a-z0-9_.-]+$",
			},
			"password_hash": bson.M{"bsonType": "string"},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"customer", "admin"},
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
