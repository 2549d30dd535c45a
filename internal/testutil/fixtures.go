package testutil

// Test fixtures for a JSON:API style students service described by a
// Swagger 2.0 document

// StudentsSwagger is the contract served by the fake students API
const StudentsSwagger = `swagger: "2.0"
info:
  title: Students API
  version: "1.0.0"
host: api.example.edu
basePath: /v1
schemes: [https]
produces: [application/json]
paths:
  /students/{osuId}/gpa:
    get:
      summary: Grade point average
      parameters:
        - in: path
          name: osuId
          type: string
          required: true
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/GradePointAverageResult"
        "404":
          description: not found
          schema:
            $ref: "#/definitions/Error"
  /students/{osuId}/academic-status:
    get:
      parameters:
        - in: path
          name: osuId
          type: string
          required: true
        - in: query
          name: term
          type: string
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/AcademicStatusResult"
  /students/{osuId}/holds:
    get:
      parameters:
        - in: path
          name: osuId
          type: string
          required: true
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/HoldsResult"
  /students/{osuId}/class-schedule:
    get:
      parameters:
        - in: path
          name: osuId
          type: string
          required: true
        - in: query
          name: term
          type: string
          required: true
      responses:
        "200":
          description: ok
          schema:
            $ref: "#/definitions/ClassScheduleResult"
        "400":
          description: bad request
          schema:
            $ref: "#/definitions/Error"
definitions:
  SelfLink:
    properties:
      self:
        type: string
        format: url
  GradePointAverage:
    type: object
    properties:
      gpa:
        type: number
        format: float
      gpaCreditHours:
        type: integer
      gpaType:
        type: string
        enum: [Institution, Transfer, Overall]
      creditHoursAttempted:
        type: integer
      qualityPoints:
        type: number
        format: double
      level:
        type: string
  GradePointAverageResult:
    properties:
      links:
        $ref: "#/definitions/SelfLink"
      data:
        properties:
          id:
            type: string
          type:
            type: string
            enum: [gpa]
          attributes:
            properties:
              gpaLevels:
                type: array
                items:
                  $ref: "#/definitions/GradePointAverage"
          links:
            $ref: "#/definitions/SelfLink"
  AcademicStatusResult:
    properties:
      links:
        $ref: "#/definitions/SelfLink"
      data:
        type: array
        items:
          properties:
            id:
              type: string
            type:
              type: string
            attributes:
              properties:
                academicStanding:
                  type: string
                term:
                  type: string
                termDescription:
                  type: string
                gpa:
                  type: array
                  items:
                    $ref: "#/definitions/GradePointAverage"
            links:
              $ref: "#/definitions/SelfLink"
  HoldsResult:
    properties:
      links:
        $ref: "#/definitions/SelfLink"
      data:
        properties:
          id:
            type: string
          type:
            type: string
          attributes:
            properties:
              holds:
                type: array
                items:
                  properties:
                    fromDate:
                      type: string
                      format: date
                    toDate:
                      type: string
                      format: date
                    description:
                      type: string
                    reason:
                      type: string
                    processesAffected:
                      type: array
                      items:
                        type: string
          links:
            $ref: "#/definitions/SelfLink"
  ClassScheduleResult:
    properties:
      links:
        $ref: "#/definitions/SelfLink"
      data:
        type: array
        items:
          properties:
            id:
              type: string
            type:
              type: string
            attributes:
              properties:
                term:
                  type: string
                courseReferenceNumber:
                  type: string
                courseTitle:
                  type: string
                creditHours:
                  type: number
                  format: float
                registrationStatus:
                  type: string
                  enum: [Registered, Web Registered, Dropped]
                scheduleStart:
                  type: string
                  format: date-time
            links:
              $ref: "#/definitions/SelfLink"
  Error:
    properties:
      errors:
        type: array
        items:
          properties:
            status:
              type: string
            title:
              type: string
            code:
              type: string
            detail:
              type: string
            links:
              properties:
                about:
                  type: string
`

// StudentID is the identifier the fake API knows about
const StudentID = "931234567"

// ScheduleTerm is the only term with a class schedule
const ScheduleTerm = "201901"

// Error details returned by the fake API
const (
	NotFoundDetail    = "The information requested was not found. If this is incorrect, please contact application support."
	TermRequiredError = "Term (query parameter) is required."
	TermInvalidError  = "Term is invalid."
)

// StudentsConfigJSON is a config file in the flat JSON layout. The %[1]s
// placeholders take the server URL.
const StudentsConfigJSON = `{
  "hostname": "%[1]s",
  "osu_id": "931234567",
  "class_schedule_term": "201901",
  "client_id": "test-client",
  "client_secret": "test-secret",
  "token_api": "%[1]s/oauth2/token"
}`

// StudentsSuiteYAML is a full suite config for the fake API. The %[1]s
// placeholders take the server URL.
const StudentsSuiteYAML = `
hostname: %[1]s
osu_id: "931234567"
class_schedule_term: "201901"
client_id: test-client
client_secret: test-secret
token_api: %[1]s/oauth2/token
resource_path: /students
cases:
  - name: gpa
    endpoint: gpa
    definition: GradePointAverageResult
    max_seconds: 4
  - name: academic-status
    endpoint: academic-status
    definition: AcademicStatusResult
    multiplicity: many
    id_template: "{{.ID}}-{{.Attributes.term}}"
  - name: holds
    endpoint: holds
    definition: HoldsResult
    max_seconds: 3
  - name: class-schedule
    endpoint: class-schedule
    definition: ClassScheduleResult
    multiplicity: many
    params:
      term: $class_schedule_term
    id_template: "{{.ID}}-{{.Attributes.term}}-{{.Attributes.courseReferenceNumber}}"
    expect:
      length(data): "2"
  - name: class-schedule-no-term
    endpoint: class-schedule
    status: 400
    detail: Term (query parameter) is required.
  - name: class-schedule-bad-term
    endpoint: class-schedule
    status: 400
    max_seconds: 3
    params:
      term: badterm
    detail: Term is invalid.
not_found:
  enabled: true
  skip: [class-schedule]
`
