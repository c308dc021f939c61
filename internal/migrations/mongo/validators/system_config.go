package validators

import "go.mongodb.org/mongo-driver/bson"

var SystemConfigValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "value", "type", "group", "updated_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"value": bson.M{
				"bsonType": "string",
			},
			"type": bson.M{
				"enum": []string{"int", "string", "bool"},
			},
			"group": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"label": bson.M{
				"bsonType": "string",
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
