package catalog

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items"],
  "additionalProperties": false,
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "name": {"type": "string", "minLength": 1},
          "display_name": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "world_object": {"type": "boolean"},
          "tool": {"type": "boolean"},
          "hidden": {"type": "boolean"}
        }
      }
    },
    "families": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "variants"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "labor_calories": {"type": "number", "minimum": 0},
          "craftable_default": {"type": "boolean"},
          "required_skills": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["skill", "level"],
              "additionalProperties": false,
              "properties": {
                "skill": {"type": "string", "minLength": 1},
                "level": {"type": "integer", "minimum": 0}
              }
            }
          },
          "variants": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "products"],
              "additionalProperties": false,
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "name": {"type": "string"},
                "ingredients": {"type": "array", "items": {"$ref": "#/definitions/ingredient"}},
                "products": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/product"}}
              }
            }
          }
        }
      }
    },
    "stations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "resource_efficiency": {"type": "number", "minimum": 0},
          "families": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "actors": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string", "minLength": 1},
          "skills": {"type": "object", "additionalProperties": {"type": "integer", "minimum": 0}},
          "labor_multiplier": {"type": "number", "minimum": 0},
          "resource_multiplier": {"type": "number", "minimum": 0},
          "stations": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  },
  "definitions": {
    "ingredient": {
      "type": "object",
      "required": ["amount"],
      "additionalProperties": false,
      "oneOf": [
        {"required": ["item"]},
        {"required": ["tag"]}
      ],
      "properties": {
        "item": {"type": "string", "minLength": 1},
        "tag": {"type": "string", "minLength": 1},
        "amount": {"type": "number", "exclusiveMinimum": 0},
        "static": {"type": "boolean"}
      }
    },
    "product": {
      "type": "object",
      "required": ["item", "amount"],
      "additionalProperties": false,
      "properties": {
        "item": {"type": "string", "minLength": 1},
        "amount": {"type": "number", "exclusiveMinimum": 0},
        "static": {"type": "boolean"}
      }
    }
  }
}`
