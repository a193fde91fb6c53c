package validators

import "go.mongodb.org/mongo-driver/bson"

var WizardValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"student_id",
			"phase",
			"selection",
			"generation",
			"version",
			"created_at",
			"expires_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"student_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"phase": bson.M{
				"enum": []string{
					"no_tutor",
					"loading_slots",
					"no_availability",
					"picking_date",
					"picking_time",
					"ready_to_submit",
					"submitting",
					"confirmed",
				},
			},

			"selection": bson.M{
				"bsonType": "object",
				"required": []string{"duration"},
				"properties": bson.M{
					"duration": bson.M{
						"bsonType": []string{"int", "long"},
						"enum":     []int{30, 60, 90, 120},
					},
					"date": bson.M{
						"bsonType": "string",
						"pattern":  `^\d{4}-\d{2}-\d{2}$`,
					},
					"time": bson.M{
						"bsonType":  "string",
						"maxLength": 16,
					},
					"session_type": bson.M{
						"enum": []string{"online", "in-person"},
					},
					"notes": bson.M{
						"bsonType":  "string",
						"maxLength": 2000,
					},
				},
			},

			"slots": bson.M{
				"bsonType": []string{"array", "null"},
			},

			"generation": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
